package domain

import "fmt"

type ProfileType string

const (
	ProfileTypeStatic ProfileType = "static"
	ProfileTypeSSO    ProfileType = "sso"
	ProfileTypeRole   ProfileType = "role"
	ProfileTypeOther  ProfileType = "other"
)

// ConfigProfile is a named AWS profile from the shared config or credentials file.
type ConfigProfile struct {
	Name    string
	Type    ProfileType
	Region  string
	RoleArn string
	Files   []string
}

func (c ConfigProfile) String() string {
	return fmt.Sprintf("%s:%s", c.Type, c.Name)
}
