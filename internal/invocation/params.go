package invocation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

// SnapshotParams are read by the snapshot rotator.
type SnapshotParams struct {
	MaxSaveTime int    `mapstructure:"max_savetime" validate:"gte=1,lte=1000"`
	DDToken     string `mapstructure:"dd_token"`
	DDSecret    string `mapstructure:"dd_secret" validate:"required_with=DDToken"`
}

// MailParams are read by the alarm notifier.
type MailParams struct {
	Username string   `mapstructure:"username" validate:"required"`
	Password string   `mapstructure:"password" validate:"required"`
	Host     string   `mapstructure:"host" validate:"required"`
	Port     int      `mapstructure:"port" validate:"omitempty,gte=1,lte=65535"`
	CC       []string `mapstructure:"cc" validate:"dive,email"`
}

// ForwardParams are read by the webhook forwarders.
type ForwardParams struct {
	GraylogAddress string `mapstructure:"graylog_address" validate:"omitempty,url"`
}

// Decode fills out from the user data keys named by its mapstructure tags.
// Fields whose key is unset keep their current value, so callers pass a
// struct already holding defaults. Strings are converted weakly, and list
// fields accept comma separated values.
func Decode(inv ports.Invocation, out any) error {
	input := map[string]any{}
	for _, key := range keysOf(out) {
		if v := inv.UserData(key); v != "" {
			input[key] = v
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to build parameter decoder")
	}
	if err := dec.Decode(input); err != nil {
		return errors.WrapUserFacing(err, errors.CodeInvalidParameter, "invalid user data", "Check the function's user data values.")
	}
	trimSlices(out)

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(out); err != nil {
		return FormatValidation(err, errors.CodeInvalidParameter, "Invalid user data:", "Check the function's user data values.")
	}
	return nil
}

// FormatValidation turns validator errors into one user facing error listing
// every failed field.
func FormatValidation(err error, code errors.Code, heading, suggestion string) error {
	var details strings.Builder
	details.WriteString(heading)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.WrapUserFacing(err, code, heading, suggestion)
	}
	for _, fe := range validationErrors {
		details.WriteString("\n - Field '" + fe.Namespace() + "': Failed on '" + fe.Tag() + "' validation")
		if fe.Param() != "" {
			details.WriteString(" (" + fe.Param() + ")")
		}
	}
	return errors.NewUserFacing(code, details.String(), suggestion)
}

func keysOf(out any) []string {
	t := reflect.TypeOf(out)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("mapstructure"), ",")
		if name != "" && name != "-" {
			keys = append(keys, name)
		}
	}
	return keys
}

// trimSlices drops blanks around comma separated entries.
func trimSlices(out any) {
	v := reflect.ValueOf(out)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() != reflect.Slice || f.Type().Elem().Kind() != reflect.String {
			continue
		}
		kept := reflect.MakeSlice(f.Type(), 0, f.Len())
		for j := 0; j < f.Len(); j++ {
			if s := strings.TrimSpace(f.Index(j).String()); s != "" {
				kept = reflect.Append(kept, reflect.ValueOf(s).Convert(f.Type().Elem()))
			}
		}
		f.Set(kept)
	}
}
