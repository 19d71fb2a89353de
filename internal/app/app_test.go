package app

import (
	"context"
	"testing"
	"time"

	"rakhaai/pkg/ai"
	"rakhaai/pkg/storage"
	"rakhaai/pkg/store"
)

// stubGenerator records the last prompt and photo and returns a canned
// reply or error.
type stubGenerator struct {
	reply string
	err   error

	calls  int
	prompt string
	photo  *ai.Photo
}

func (g *stubGenerator) GenerateReply(ctx context.Context, prompt string, photo *ai.Photo) (string, error) {
	g.calls++
	g.prompt = prompt
	g.photo = photo
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type testApp struct {
	*App
	store  *store.MemoryStore
	photos *storage.MemoryPhotoStore
	gen    *stubGenerator
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	memStore := store.NewMemoryStore()
	photos := storage.NewMemoryPhotoStore()
	gen := &stubGenerator{reply: "Halo juga!"}
	sessions, err := store.NewJWTSessionStore("test-secret", time.Hour, nil)
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	a, err := New(Options{
		Store:     memStore,
		Sessions:  sessions,
		Photos:    photos,
		Generator: gen,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return &testApp{App: a, store: memStore, photos: photos, gen: gen}
}
