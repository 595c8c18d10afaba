package domain

import "time"

// Active-state sentinels per kind. Inventory filters compare against these.
const (
	ServerStatusActive   = "running"
	VolumeStatusActive   = "in-use"
	PublicIPStatusActive = "ACTIVE"
	PublicIPStatusDown   = "DOWN"
	DatabaseStatusActive = "available"

	ServerStatusTerminated   = "terminated"
	ServerStatusShuttingDown = "shutting-down"
)

type Server struct {
	ID           string
	ARN          string
	Region       string
	Name         string
	Status       string
	InstanceType string
	VCPUs        int32
	MemoryMiB    int64
	PrivateIP    string
	PublicIP     string
	Tags         Tags
}

func (s Server) Active() bool { return s.Status == ServerStatusActive }

// Exists is false for instances the platform still lists after termination.
func (s Server) Exists() bool {
	return s.Status != ServerStatusTerminated && s.Status != ServerStatusShuttingDown
}

type Attachment struct {
	ServerID string
	Device   string
}

type Volume struct {
	ID          string
	ARN         string
	Region      string
	Name        string
	Status      string
	VolumeType  string
	SizeGiB     int32
	Attachments []Attachment
	Tags        Tags
	CreatedAt   time.Time
}

func (v Volume) Active() bool { return v.Status == VolumeStatusActive }

// DisplayName falls back to the identifier when the volume carries no name.
func (v Volume) DisplayName() string {
	if v.Name != "" {
		return v.Name
	}
	return v.ID
}

func (v Volume) PrimaryAttachment() (Attachment, bool) {
	if len(v.Attachments) == 0 {
		return Attachment{}, false
	}
	return v.Attachments[0], true
}

type PublicIP struct {
	AllocationID       string
	ARN                string
	Region             string
	Name               string
	Status             string
	PublicIP           string
	PrivateIP          string
	ServerID           string
	NetworkInterfaceID string
	Domain             string
	BorderGroup        string
	Tags               Tags
}

func (p PublicIP) Active() bool { return p.Status == PublicIPStatusActive }

type Database struct {
	ID     string
	ARN    string
	Region string
	Status string
	Engine string
	Tags   Tags
}

func (d Database) Active() bool { return d.Status == DatabaseStatusActive }
