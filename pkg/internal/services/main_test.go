package services

import (
	"fmt"
	"sync"
	"testing"

	localCache "github.com/eventhost/pulse/pkg/internal/cache"
	"github.com/eventhost/pulse/pkg/internal/database"
	"github.com/eventhost/pulse/pkg/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDatabase points database.C at a private in-memory sqlite and
// resets the broadcaster and local cache, so every test starts cold.
func setupTestDatabase(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	source, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigration(source))
	database.C = source

	require.NoError(t, localCache.NewStore())
	SetBroadcaster(noopBroadcaster{})
}

// recordingBroadcaster captures fan-out calls for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	Scope   string
	Role    string
	Event   string
	Payload any
}

func (v *recordingBroadcaster) ToAll(event string, payload any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, recordedEvent{Scope: "all", Event: event, Payload: payload})
}

func (v *recordingBroadcaster) ToRole(role string, event string, payload any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, recordedEvent{Scope: "role", Role: role, Event: event, Payload: payload})
}

func (v *recordingBroadcaster) Events() []recordedEvent {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]recordedEvent, len(v.events))
	copy(out, v.events)
	return out
}

func makeAccount(t *testing.T, name, role string) models.Account {
	t.Helper()

	account := models.Account{
		Name:  name,
		Email: fmt.Sprintf("%s@%s.test", name, t.Name()),
		Role:  role,
	}
	require.NoError(t, database.C.Create(&account).Error)
	return account
}
