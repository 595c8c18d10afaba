package domain

import "time"

type AlarmDimension struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type AlarmTrigger struct {
	MetricName         string           `json:"MetricName"`
	Namespace          string           `json:"Namespace"`
	Statistic          string           `json:"Statistic"`
	Unit               string           `json:"Unit"`
	Dimensions         []AlarmDimension `json:"Dimensions"`
	Period             int              `json:"Period"`
	EvaluationPeriods  int              `json:"EvaluationPeriods"`
	ComparisonOperator string           `json:"ComparisonOperator"`
	Threshold          float64          `json:"Threshold"`
}

// Alarm is the state-change message published to the alarm topic.
type Alarm struct {
	Subject          string       `json:"-"`
	AlarmName        string       `json:"AlarmName"`
	AlarmDescription string       `json:"AlarmDescription"`
	AccountID        string       `json:"AWSAccountId"`
	NewStateValue    string       `json:"NewStateValue"`
	NewStateReason   string       `json:"NewStateReason"`
	OldStateValue    string       `json:"OldStateValue"`
	StateChangeTime  string       `json:"StateChangeTime"`
	Region           string       `json:"Region"`
	AlarmArn         string       `json:"AlarmArn"`
	Trigger          AlarmTrigger `json:"Trigger"`
}

func (a Alarm) Dimension(name string) string {
	for _, d := range a.Trigger.Dimensions {
		if d.Name == name {
			return d.Value
		}
	}
	return ""
}

// AlarmTarget is the resource an alarm is about, resolved from its namespace.
type AlarmTarget struct {
	Service      string
	ResourceType string
	ResourceID   string
	Region       string
	AccountID    string
}

// OwnerMail is everything the mail template renders.
type OwnerMail struct {
	Manager        string
	Recipient      string
	CC             []string
	Subject        string
	Rule           string
	Reason         string
	Region         string
	DimensionName  string
	ResourceID     string
	MetricName     string
	Namespace      string
	Threshold      float64
	Comparison     string
	State          string
	OccurredAt     time.Time
	OccurredAtText string
}
