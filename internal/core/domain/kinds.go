package domain

type ResourceKind string

const (
	KindServer     ResourceKind = "server"
	KindVolume     ResourceKind = "volume"
	KindPublicIP   ResourceKind = "public_ip"
	KindDatabase   ResourceKind = "database"
	KindMountPoint ResourceKind = "mount_point"
	KindSnapshot   ResourceKind = "snapshot"
	KindGroup      ResourceKind = "group"
)

func (rk ResourceKind) String() string {
	return string(rk)
}
