package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"setteemezzo-server/internal/util"
)

func TestInstance(t *testing.T) {
	clear1 := util.SetEnv("SEM_CONFIG_FILE", "testdata/config.yaml")
	defer clear1()
	clear2 := util.SetEnv("SEM_JWT_PRIVATE_KEY", "private2.key")
	defer clear2()

	config = Config{}

	a := assert.New(t)
	cfg := Instance()
	a.Equal("postgres://postgres@testhost:5432/setteemezzo?sslmode=disable", cfg.PGDSN)
	a.Equal("public.pem", cfg.JWT.PublicKey)
	a.Equal("private2.key", cfg.JWT.PrivateKey)
	a.Equal(250, cfg.StartingBalance)
	a.Equal(60, cfg.Session.EndedTTL)

	// defaults survive a partial config file
	a.Equal(3600, cfg.Session.IdleTTL)

	// ensure that it's only loaded once
	_ = os.Setenv("SEM_JWT_PRIVATE_KEY", "private3.key")
	// ensure we aren't using a pointer
	cfg.JWT.PrivateKey = "bad"
	cfg = Instance()
	a.Equal("private2.key", cfg.JWT.PrivateKey)
}

func TestDefaults(t *testing.T) {
	clear1 := util.SetEnv("SEM_CONFIG_FILE", "testdata/does-not-exist.yaml")
	defer clear1()

	config = Config{}

	assert.NoError(t, Load())
	cfg := Instance()
	assert.Equal(t, "./sql", cfg.MigrationsPath)
	assert.Equal(t, 100, cfg.StartingBalance)
}
