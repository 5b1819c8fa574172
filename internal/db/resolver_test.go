package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgwait/internal/config"
	"github.com/vvka-141/pgwait/pkg/pgwait"
)

func TestGranularConnFlags_IsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		flags GranularConnFlags
		want  bool
	}{
		{"empty flags", GranularConnFlags{}, true},
		{"only host set", GranularConnFlags{Host: "localhost"}, false},
		{"only port set", GranularConnFlags{Port: 5432}, false},
		{"only username set", GranularConnFlags{Username: "testuser"}, false},
		{"only database set", GranularConnFlags{Database: "testdb"}, true},
		{"only sslmode set", GranularConnFlags{SSLMode: "require"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.flags.IsEmpty())
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PGWAIT_CONNECTION_STRING", "postgresql://a@b/c")
	t.Setenv("DATABASE_URL", "postgresql://d@e/f")
	t.Setenv("PGHOST", "envhost")
	t.Setenv("PGPORT", "6543")
	t.Setenv("PGUSER", "envuser")
	t.Setenv("PGPASSWORD", "envpass")
	t.Setenv("PGDATABASE", "envdb")
	t.Setenv("PGSSLMODE", "require")
	t.Setenv("PGAPPNAME", "envapp")
	t.Setenv("PGCONNECT_TIMEOUT", "9")
	t.Setenv("AZURE_TENANT_ID", "tenant")
	t.Setenv("AZURE_CLIENT_ID", "client")
	t.Setenv("AZURE_CLIENT_SECRET", "secret")
	t.Setenv("AWS_REGION", "us-east-2")
	t.Setenv("AWS_DEFAULT_REGION", "us-west-1")

	env := LoadFromEnvironment()

	assert.Equal(t, &EnvVars{
		PGWAIT_CONNECTION_STRING: "postgresql://a@b/c",
		DATABASE_URL:             "postgresql://d@e/f",
		PGHOST:                   "envhost",
		PGPORT:                   "6543",
		PGUSER:                   "envuser",
		PGPASSWORD:               "envpass",
		PGDATABASE:               "envdb",
		PGSSLMODE:                "require",
		PGAPPNAME:                "envapp",
		PGCONNECT_TIMEOUT:        "9",
		AZURE_TENANT_ID:          "tenant",
		AZURE_CLIENT_ID:          "client",
		AZURE_CLIENT_SECRET:      "secret",
		AWS_REGION:               "us-east-2",
		AWS_DEFAULT_REGION:       "us-west-1",
	}, env)
}

func TestResolveConnectionParams_ConflictDetection(t *testing.T) {
	_, err := ResolveConnectionParams(
		"postgresql://localhost/db",
		&GranularConnFlags{Host: "other"},
		nil, nil, nil,
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, pgwait.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "cannot specify both")

	// -d alone is not a conflict
	cfg, err := ResolveConnectionParams(
		"postgresql://localhost/db",
		&GranularConnFlags{Database: "override"},
		nil, nil, nil,
	)
	require.NoError(t, err)
	assert.Equal(t, "override", cfg.Database)
}

func TestResolveConnectionParams_FromConnectionString(t *testing.T) {
	env := &EnvVars{PGPASSWORD: "fromenv", PGHOST: "ignored"}

	cfg, err := ResolveConnectionParams("postgresql://app@db.internal:6432/orders?sslmode=require", nil, nil, env, nil)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6432, cfg.Port)
	assert.Equal(t, "orders", cfg.Database)
	assert.Equal(t, "app", cfg.Username)
	assert.Equal(t, "fromenv", cfg.Password, "PGPASSWORD fills a missing password")
	assert.Equal(t, "require", cfg.SSLMode)
	assert.Equal(t, pgwait.AuthMethodStandard, cfg.AuthMethod)
}

func TestResolveConnectionParams_EmbeddedPasswordWins(t *testing.T) {
	cfg, err := ResolveConnectionParams("postgresql://app:inline@db/orders", nil, nil, &EnvVars{PGPASSWORD: "fromenv"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "inline", cfg.Password)
}

func TestResolveConnectionParams_InvalidConnectionString(t *testing.T) {
	_, err := ResolveConnectionParams("nonsense", nil, nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, pgwait.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "--connection")
}

func TestResolveConnectionParams_EnvironmentConnectionStrings(t *testing.T) {
	tests := []struct {
		name     string
		env      *EnvVars
		flags    *GranularConnFlags
		wantHost string
	}{
		{
			name:     "PGWAIT_CONNECTION_STRING preferred over DATABASE_URL",
			env:      &EnvVars{PGWAIT_CONNECTION_STRING: "postgresql://first/db", DATABASE_URL: "postgresql://second/db"},
			wantHost: "first",
		},
		{
			name:     "DATABASE_URL used when alone",
			env:      &EnvVars{DATABASE_URL: "postgresql://second/db"},
			wantHost: "second",
		},
		{
			name:     "granular flags beat DATABASE_URL",
			env:      &EnvVars{DATABASE_URL: "postgresql://second/db"},
			flags:    &GranularConnFlags{Host: "flaghost"},
			wantHost: "flaghost",
		},
		{
			name:     "DATABASE_URL beats PGHOST",
			env:      &EnvVars{DATABASE_URL: "postgresql://second/db", PGHOST: "pghost"},
			wantHost: "second",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ResolveConnectionParams("", tt.flags, nil, tt.env, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, cfg.Host)
		})
	}
}

func TestResolveConnectionParams_InvalidDatabaseURL(t *testing.T) {
	_, err := ResolveConnectionParams("", nil, nil, &EnvVars{DATABASE_URL: "garbage"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$DATABASE_URL")
}

func TestResolveConnectionParams_Precedence(t *testing.T) {
	project := &config.ProjectConfig{Connection: config.ConnectionConfig{
		Host:     "yamlhost",
		Port:     7000,
		Username: "yamluser",
		Database: "yamldb",
		SSLMode:  "verify-ca",
	}}

	t.Run("yaml over defaults", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("", nil, nil, &EnvVars{}, project)
		require.NoError(t, err)
		assert.Equal(t, "yamlhost", cfg.Host)
		assert.Equal(t, 7000, cfg.Port)
		assert.Equal(t, "yamluser", cfg.Username)
		assert.Equal(t, "yamldb", cfg.Database)
		assert.Equal(t, "verify-ca", cfg.SSLMode)
	})

	t.Run("env over yaml", func(t *testing.T) {
		env := &EnvVars{PGHOST: "envhost", PGPORT: "7001", PGUSER: "envuser", PGDATABASE: "envdb", PGSSLMODE: "disable"}
		cfg, err := ResolveConnectionParams("", nil, nil, env, project)
		require.NoError(t, err)
		assert.Equal(t, "envhost", cfg.Host)
		assert.Equal(t, 7001, cfg.Port)
		assert.Equal(t, "envuser", cfg.Username)
		assert.Equal(t, "envdb", cfg.Database)
		assert.Equal(t, "disable", cfg.SSLMode)
	})

	t.Run("flags over env", func(t *testing.T) {
		env := &EnvVars{PGHOST: "envhost", PGPORT: "7001", PGUSER: "envuser", PGDATABASE: "envdb"}
		flags := &GranularConnFlags{Host: "flaghost", Port: 7002, Username: "flaguser", Database: "flagdb", SSLMode: "require"}
		cfg, err := ResolveConnectionParams("", flags, nil, env, project)
		require.NoError(t, err)
		assert.Equal(t, "flaghost", cfg.Host)
		assert.Equal(t, 7002, cfg.Port)
		assert.Equal(t, "flaguser", cfg.Username)
		assert.Equal(t, "flagdb", cfg.Database)
		assert.Equal(t, "require", cfg.SSLMode)
	})
}

func TestResolveConnectionParams_Defaults(t *testing.T) {
	t.Setenv("USER", "osuser")

	cfg, err := ResolveConnectionParams("", nil, nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "postgres", cfg.Database)
	assert.Equal(t, "prefer", cfg.SSLMode)
	assert.Equal(t, "osuser", cfg.Username)
	assert.Equal(t, pgwait.AuthMethodStandard, cfg.AuthMethod)
}

func TestResolveConnectionParams_InvalidPGPORT(t *testing.T) {
	for _, port := range []string{"abc", "0", "-1", "65536", "5432x"} {
		t.Run(port, func(t *testing.T) {
			_, err := ResolveConnectionParams("", nil, nil, &EnvVars{PGPORT: port}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, pgwait.ErrInvalidConfig)
			assert.Contains(t, err.Error(), "$PGPORT")
		})
	}
}

func TestResolveConnectionParams_AppNameAndTimeoutFromEnv(t *testing.T) {
	cfg, err := ResolveConnectionParams("", nil, nil, &EnvVars{PGAPPNAME: "migrator", PGCONNECT_TIMEOUT: "4"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "migrator", cfg.AppName)
	assert.Equal(t, 4*time.Second, cfg.ConnectTimeout)

	// The connection string wins
	cfg, err = ResolveConnectionParams("postgresql://db/x?application_name=inline&connect_timeout=2", nil, nil,
		&EnvVars{PGAPPNAME: "migrator", PGCONNECT_TIMEOUT: "4"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "inline", cfg.AppName)
	assert.Equal(t, 2*time.Second, cfg.ConnectTimeout)

	_, err = ResolveConnectionParams("", nil, nil, &EnvVars{PGCONNECT_TIMEOUT: "soon"}, nil)
	assert.ErrorIs(t, err, pgwait.ErrInvalidConfig)
}

func TestResolveConnectionParams_Auth(t *testing.T) {
	tests := []struct {
		name    string
		cloud   *CloudFlags
		env     *EnvVars
		project *config.ProjectConfig
		check   func(t *testing.T, cfg *pgwait.ConnectionConfig)
	}{
		{
			name:  "azure from env switches standard auth",
			env:   &EnvVars{AZURE_TENANT_ID: "t", AZURE_CLIENT_ID: "c", AZURE_CLIENT_SECRET: "s"},
			check: func(t *testing.T, cfg *pgwait.ConnectionConfig) {
				assert.Equal(t, pgwait.AuthMethodAzureEntraID, cfg.AuthMethod)
				assert.Equal(t, "t", cfg.AzureTenantID)
				assert.Equal(t, "c", cfg.AzureClientID)
				assert.Equal(t, "s", cfg.AzureClientSecret)
			},
		},
		{
			name:  "azure flags override env",
			cloud: &CloudFlags{AzureTenantID: "flag-t"},
			env:   &EnvVars{AZURE_TENANT_ID: "env-t", AZURE_CLIENT_ID: "env-c"},
			check: func(t *testing.T, cfg *pgwait.ConnectionConfig) {
				assert.Equal(t, pgwait.AuthMethodAzureEntraID, cfg.AuthMethod)
				assert.Equal(t, "flag-t", cfg.AzureTenantID)
				assert.Equal(t, "env-c", cfg.AzureClientID)
			},
		},
		{
			name:  "aws region flag",
			cloud: &CloudFlags{AuthMethod: "aws", AWSRegion: "eu-central-1"},
			env:   &EnvVars{AWS_REGION: "us-east-1"},
			check: func(t *testing.T, cfg *pgwait.ConnectionConfig) {
				assert.Equal(t, pgwait.AuthMethodAWSIAM, cfg.AuthMethod)
				assert.Equal(t, "eu-central-1", cfg.AWSRegion)
			},
		},
		{
			name:  "aws region falls back to AWS_DEFAULT_REGION",
			cloud: &CloudFlags{AuthMethod: "aws-iam"},
			env:   &EnvVars{AWS_DEFAULT_REGION: "ap-south-1"},
			check: func(t *testing.T, cfg *pgwait.ConnectionConfig) {
				assert.Equal(t, "ap-south-1", cfg.AWSRegion)
			},
		},
		{
			name:    "google from yaml",
			project: &config.ProjectConfig{Connection: config.ConnectionConfig{AuthMethod: "google", GoogleInstance: "p:r:i"}},
			check: func(t *testing.T, cfg *pgwait.ConnectionConfig) {
				assert.Equal(t, pgwait.AuthMethodGoogleIAM, cfg.AuthMethod)
				assert.Equal(t, "p:r:i", cfg.GoogleInstance)
			},
		},
		{
			name:  "explicit aws is not overridden by azure env",
			cloud: &CloudFlags{AuthMethod: "aws", AWSRegion: "us-east-1"},
			env:   &EnvVars{AZURE_TENANT_ID: "t"},
			check: func(t *testing.T, cfg *pgwait.ConnectionConfig) {
				assert.Equal(t, pgwait.AuthMethodAWSIAM, cfg.AuthMethod)
				assert.Empty(t, cfg.AzureTenantID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ResolveConnectionParams("", &GranularConnFlags{Host: "db", Username: "u"}, tt.cloud, tt.env, tt.project)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestResolveConnectionParams_UnsupportedAuth(t *testing.T) {
	_, err := ResolveConnectionParams("", nil, &CloudFlags{AuthMethod: "kerberos"}, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, pgwait.ErrUnsupportedAuthMethod)
	assert.Equal(t, pgwait.ExitConfigError, pgwait.ExitCodeForError(err))
}
