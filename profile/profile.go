// Package profile manages the named S3 connection profiles stored in the
// plugin's JSON config file.
//
// The file is created with a single placeholder profile the first time it is
// loaded and read in full on every later request:
//
//	store := profile.NewStore(profile.DefaultPath())
//	p, err := store.Open("minio_local")
//	if err != nil {
//	  return err
//	}
package profile

import (
	"strings"
)

// PlaceholderPrefix marks a credential that has not been filled in yet.
const PlaceholderPrefix = "YOUR_"

// Driver names the client library used to talk to a profile's endpoint.
type Driver string

const (
	DriverAWS   Driver = "aws"
	DriverMinio Driver = "minio"
)

// Profile is one storage connection target.
type Profile struct {
	Name      string `json:"name"`
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Secure    bool   `json:"secure"`
	Region    string `json:"region"`
	Driver    Driver `json:"driver,omitempty"`
}

// Verdict is the outcome of validating a profile.
type Verdict int

const (
	Valid Verdict = iota
	Invalid
)

func (v Verdict) String() string {
	if v == Valid {
		return "VALID"
	}

	return "INVALID"
}

// Validate reports whether the profile carries usable credentials.
func Validate(p Profile) Verdict {
	if !credentialSet(p.AccessKey) || !credentialSet(p.SecretKey) {
		return Invalid
	}

	return Valid
}

// Validate reports whether the profile carries usable credentials.
func (p Profile) Validate() Verdict {
	return Validate(p)
}

// Configured is the boolean form of Validate.
func (p Profile) Configured() bool {
	return Validate(p) == Valid
}

// DisplayName returns the profile's name, falling back to its key.
func (p Profile) DisplayName(key string) string {
	if p.Name == "" {
		return key
	}

	return p.Name
}

// Check returns an ErrInvalidCredentials error when the profile fails validation.
// The path names the file the user needs to edit.
func (p Profile) Check(key, path string) error {
	if Validate(p) == Valid {
		return nil
	}

	field := "access_key"
	if credentialSet(p.AccessKey) {
		field = "secret_key"
	}

	return &Error{
		Kind:  ErrInvalidCredentials,
		Key:   key,
		Field: field,
		Path:  path,
	}
}

func credentialSet(v string) bool {
	return v != "" && !strings.HasPrefix(v, PlaceholderPrefix)
}

// File is the on-disk layout of the config file.
type File struct {
	Profiles       map[string]Profile `json:"profiles"`
	DefaultProfile string             `json:"default_profile,omitempty"`
}

// Names returns the profile keys in sorted order.
func (f *File) Names() []string {
	return sortedKeys(f.Profiles)
}

// Seed returns the file written on first run: one placeholder profile and no default.
func Seed() *File {
	return &File{
		Profiles: map[string]Profile{
			"aws_s3": {
				Name:      "AWS S3",
				Endpoint:  "s3.amazonaws.com",
				AccessKey: "YOUR_AWS_ACCESS_KEY",
				SecretKey: "YOUR_AWS_SECRET_KEY",
				Secure:    true,
				Region:    "us-east-1",
			},
		},
	}
}
