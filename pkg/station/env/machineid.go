package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves the unique ID identifying the machine, hashed so
// the raw ID isn't published. It returns an empty string if the machine
// has no ID.
func MachineID() string {
	id, err := machineid.ProtectedID("sensorlib")
	if err != nil {
		glog.V(1).Infof("machine id: %v", err)
		return ""
	}
	return id[:16]
}
