// Package invocation exposes the credentials and user parameters a handler
// is invoked with. Values come from viper, so the same keys can be set in the
// config file, as HOUSEKEEPER_* environment variables or as flags.
package invocation

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
)

const (
	KeyAccessKey = "access_key"
	KeySecretKey = "secret_key"
	userDataKey  = "user_data"
)

type Invocation struct {
	v         *viper.Viper
	overrides map[string]string
}

func New(v *viper.Viper) *Invocation {
	return &Invocation{v: v, overrides: map[string]string{}}
}

var _ ports.Invocation = (*Invocation)(nil)

func (i *Invocation) AccessKey() string { return i.v.GetString(KeyAccessKey) }
func (i *Invocation) SecretKey() string { return i.v.GetString(KeySecretKey) }

// UserData returns one user parameter. Keys are case insensitive.
func (i *Invocation) UserData(key string) string {
	key = strings.ToLower(key)
	if v, ok := i.overrides[key]; ok {
		return v
	}
	return strings.TrimSpace(i.v.GetString(userDataKey + "." + key))
}

// With returns a copy carrying extra user data, used for values that arrive
// with the event rather than the environment.
func (i *Invocation) With(key, value string) *Invocation {
	out := &Invocation{v: i.v, overrides: make(map[string]string, len(i.overrides)+1)}
	for k, v := range i.overrides {
		out.overrides[k] = v
	}
	out.overrides[strings.ToLower(key)] = value
	return out
}
