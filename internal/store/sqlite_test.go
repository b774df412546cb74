package store

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// A database without the game_docs table makes every read fail, exercising
// the initial-read error path of Watch.
func TestSQLiteWatch_InitialReadErrorStaysLocal(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	st := NewSQLiteStore(db)

	errs := make(chan error, 4)
	cancel1 := st.Watch("lobby", func(Doc) {}, func(err error) { errs <- err })
	defer cancel1()

	select {
	case <-errs:
	case <-time.After(time.Second):
		t.Fatalf("first watcher never saw its own read error")
	}

	// A second watcher failing its initial read must not re-notify the
	// first; each subscriber owns exactly its own failure.
	cancel2 := st.Watch("lobby", func(Doc) {}, func(error) {})
	defer cancel2()

	time.Sleep(50 * time.Millisecond)
	select {
	case err := <-errs:
		t.Fatalf("second watcher's read error reached the first: %v", err)
	default:
	}
}
