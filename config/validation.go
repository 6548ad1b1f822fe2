package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigRequirements defines required configuration for each environment
type ConfigRequirements struct {
	RequirePostgres bool
	RequiredSecrets []string
}

var (
	// Environment-specific requirements
	requirements = map[Environment]ConfigRequirements{
		Development: {},
		Test:        {},
		CI:          {},
		Production: {
			RequirePostgres: true,
			RequiredSecrets: []string{
				"db_password",
				"jwt_secret",
			},
		},
	}
)

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := cfg.Environment
	if env == "" {
		env = GetEnvironment()
	}
	reqs := requirements[env]

	var errs []ValidationError

	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DBHost == "" || cfg.DBName == "" {
			errs = append(errs, ValidationError{"DB_HOST", "postgres requires DB_HOST and DB_NAME"})
		}
	case DriverSQLite:
		if reqs.RequirePostgres {
			errs = append(errs, ValidationError{"DB_DRIVER", "sqlite is not allowed in " + string(env)})
		}
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{"SQLITE_PATH", "must be set for sqlite"})
		}
	default:
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	// In production, sensitive values must come from Docker secrets
	for _, secret := range reqs.RequiredSecrets {
		if readSecret(secret) == "" {
			errs = append(errs, ValidationError{secret, "required secret is not set"})
		}
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"JWT_SECRET", "must not be empty"})
	}
	if cfg.JWTTTL <= 0 {
		errs = append(errs, ValidationError{"JWT_TTL", "must be positive"})
	}

	switch cfg.StorageBackend {
	case StorageLocal:
		if cfg.MediaRoot == "" {
			errs = append(errs, ValidationError{"MEDIA_ROOT", "must be set for local storage"})
		}
	case StorageS3:
		if cfg.S3BucketName == "" {
			errs = append(errs, ValidationError{"S3_BUCKET_NAME", "must be set for s3 storage"})
		}
	default:
		errs = append(errs, ValidationError{"STORAGE_BACKEND", fmt.Sprintf("unsupported backend %q", cfg.StorageBackend)})
	}

	if cfg.IngredientMatch != MatchPrefix && cfg.IngredientMatch != MatchExact {
		errs = append(errs, ValidationError{"INGREDIENT_MATCH", "must be prefix or exact"})
	}
	if cfg.PageSize <= 0 {
		errs = append(errs, ValidationError{"PAGE_SIZE", "must be positive"})
	}
	if cfg.RecipeCreateLimit <= 0 || cfg.RecipeCreateWindow <= 0 {
		errs = append(errs, ValidationError{"RECIPE_CREATE_LIMIT", "limit and window must be positive"})
	}

	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(msgs, "\n"))
	}

	return nil
}
