package domain

import "strings"

type Dimension struct {
	Name  string
	Value string
}

// GroupMember identifies one monitored resource. Mount points are compound:
// the instance plus its path and device dimensions.
type GroupMember struct {
	Kind       ResourceKind
	Region     string
	Dimensions []Dimension
}

func (m GroupMember) Key() string {
	parts := make([]string, 0, len(m.Dimensions))
	for _, d := range m.Dimensions {
		parts = append(parts, d.Name+"="+d.Value)
	}
	return strings.Join(parts, ",")
}

// Value returns the first dimension value with the given name.
func (m GroupMember) Value(name string) string {
	for _, d := range m.Dimensions {
		if d.Name == name {
			return d.Value
		}
	}
	return ""
}

// MetricRef names the metric a group charts for each member.
type MetricRef struct {
	Namespace string
	Name      string
}

type MonitorGroup struct {
	Name    string
	ID      string
	Metric  MetricRef
	Members []GroupMember
}

type Project struct {
	Name   string
	ID     string
	Region string
}
