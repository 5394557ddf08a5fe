package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/dev-tams/assetsweep/internal/schedule"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints first, then the rules that depend on store type.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config %s: failed %q check (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	names := map[string]struct{}{}
	for i, s := range c.Schedules {
		if _, ok := names[s.Name]; ok {
			return fmt.Errorf("schedules[%d]: duplicate name %q", i, s.Name)
		}
		names[s.Name] = struct{}{}

		if _, err := schedule.Parse(s.Cron); err != nil {
			return fmt.Errorf("schedules[%d].cron %q: %w", i, s.Cron, err)
		}
	}
	return nil
}

func (c *Config) validateStore() error {
	st := c.Store
	switch st.Type {
	case "badger":
		if !st.Badger.InMemory && st.Badger.Path == "" {
			return fmt.Errorf("store.badger.path is required unless store.badger.in_memory is set")
		}
	case "s3":
		if st.S3.Bucket == "" || st.S3.Region == "" {
			return fmt.Errorf("store.s3.bucket and store.s3.region are required")
		}
		if (st.S3.AccessKey == "") != (st.S3.SecretKey == "") {
			return fmt.Errorf("store.s3.access_key and store.s3.secret_key must be set together")
		}
	case "minio":
		if st.Minio.Endpoint == "" || st.Minio.Bucket == "" {
			return fmt.Errorf("store.minio.endpoint and store.minio.bucket are required")
		}
	case "local":
		if st.Local.Path == "" {
			return fmt.Errorf("store.local.path is required")
		}
	}
	return nil
}
