package domain

import "time"

// Subsystem names a remote dependency that is health-checked.
type Subsystem string

const (
	SubsystemChat    Subsystem = "chat"
	SubsystemImages  Subsystem = "images"
	SubsystemSearch  Subsystem = "search"
	SubsystemStorage Subsystem = "storage"
)

// Subsystems lists every probed subsystem in a stable order.
func Subsystems() []Subsystem {
	return []Subsystem{SubsystemChat, SubsystemImages, SubsystemSearch, SubsystemStorage}
}

// SubsystemStatus is the health state of one subsystem (or the aggregate).
type SubsystemStatus string

const (
	StatusHealthy  SubsystemStatus = "healthy"
	StatusDegraded SubsystemStatus = "degraded"
	StatusCritical SubsystemStatus = "critical"
	StatusOffline  SubsystemStatus = "offline"
)

// SystemHealth is a read-only snapshot recomputed wholesale on each check.
type SystemHealth struct {
	Subsystems  map[Subsystem]SubsystemStatus `json:"subsystems"`
	Overall     SubsystemStatus               `json:"overall"`
	LastChecked time.Time                     `json:"last_checked"`
}

// SubsystemForOperation maps an operation type to the subsystem it depends on.
func SubsystemForOperation(op OperationType) Subsystem {
	switch op {
	case OperationImage:
		return SubsystemImages
	case OperationSearch:
		return SubsystemSearch
	case OperationStorage, OperationSync:
		return SubsystemStorage
	default:
		return SubsystemChat
	}
}
