package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmahrt/portfolio/internal/auth"
	"github.com/jmahrt/portfolio/internal/config"
	"github.com/jmahrt/portfolio/internal/domain"
	"github.com/jmahrt/portfolio/internal/store"
)

func TestCreateAdmin(t *testing.T) {
	repo, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, createAdmin(ctx, repo, "admin", "admin123", &out))
	assert.Contains(t, out.String(), `Admin "admin" created`)

	out.Reset()
	require.NoError(t, createAdmin(ctx, repo, "admin", "other", &out))
	assert.Contains(t, out.String(), "already exists")

	admin, err := repo.GetAdminByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(admin.PasswordHash, "admin123"))
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "create-admin", "chat"}, names)
}

func TestPipelineWithoutAPIKey(t *testing.T) {
	cfg := &config.Config{Chat: config.ChatConfig{
		Persona:     "Albert",
		MaxAttempts: 3,
	}}
	p, err := newPipeline(cfg, staticProjects(domain.DefaultProjects()), nil)
	require.NoError(t, err)

	text, err := p.Respond(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "Hi"}}, nil)
	require.Error(t, err)
	assert.NotEmpty(t, text)
}
