package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigURL(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "gate", Password: "p@ss word", Name: "gatebot"}
	assert.Equal(t, "postgres://gate:p%40ss%20word@db:5432/gatebot?sslmode=disable", cfg.URL())
	assert.Equal(t, "user=gate password=p@ss word host=db port=5432 dbname=gatebot sslmode=disable", cfg.DSN())
}
