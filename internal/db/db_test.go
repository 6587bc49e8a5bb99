package db

import (
	"bytes"
	"database/sql"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Use in-memory database for testing
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Each pooled connection would get its own empty :memory: database.
	db.SetMaxOpenConns(1)

	// Initialize schema
	if err := initSchema(db); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}

	return &DB{db}
}

func TestSaveAndLoadFrame(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()

	first := Frame{Panel: "file", Width: 296, Height: 128, PNG: []byte("first"), CreatedAt: time.UnixMilli(1000)}
	second := Frame{Panel: "file", Width: 296, Height: 128, PNG: []byte("second"), CreatedAt: time.UnixMilli(2000)}
	other := Frame{Panel: "quote0", Width: 296, Height: 152, PNG: []byte("other")}

	for _, f := range []Frame{first, second, other} {
		if err := testDB.SaveFrame(f); err != nil {
			t.Fatalf("SaveFrame() error = %v", err)
		}
	}

	got, err := testDB.LastFrame("file")
	if err != nil {
		t.Fatalf("LastFrame() error = %v", err)
	}
	if got == nil {
		t.Fatal("LastFrame() = nil, want frame")
	}
	if !bytes.Equal(got.PNG, []byte("second")) {
		t.Errorf("Expected newest frame, got %q", got.PNG)
	}
	if got.Width != 296 || got.Height != 128 {
		t.Errorf("Expected 296x128, got %dx%d", got.Width, got.Height)
	}
	if !got.CreatedAt.Equal(time.UnixMilli(2000)) {
		t.Errorf("Expected created_at %v, got %v", time.UnixMilli(2000), got.CreatedAt)
	}
}

func TestLastFrameEmpty(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()

	got, err := testDB.LastFrame("file")
	if err != nil {
		t.Fatalf("LastFrame() error = %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil frame, got %+v", got)
	}
}

func TestPruneFrames(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()

	for i := 0; i < 5; i++ {
		if err := testDB.SaveFrame(Frame{Panel: "file", PNG: []byte{byte(i)}}); err != nil {
			t.Fatalf("SaveFrame() error = %v", err)
		}
	}
	if err := testDB.SaveFrame(Frame{Panel: "quote0", PNG: []byte{9}}); err != nil {
		t.Fatalf("SaveFrame() error = %v", err)
	}

	if err := testDB.PruneFrames("file", 2); err != nil {
		t.Fatalf("PruneFrames() error = %v", err)
	}

	var count int
	if err := testDB.QueryRow("SELECT COUNT(*) FROM frames WHERE panel = 'file'").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 file frames, got %d", count)
	}
	if err := testDB.QueryRow("SELECT COUNT(*) FROM frames WHERE panel = 'quote0'").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected quote0 frame untouched, got %d", count)
	}

	last, err := testDB.LastFrame("file")
	if err != nil || last == nil || last.PNG[0] != 4 {
		t.Errorf("Expected newest frame to survive, got %+v, %v", last, err)
	}
}

func TestRecordRun(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()

	tests := []struct {
		name string
		run  Run
	}{
		{
			name: "successful run",
			run: Run{
				ID:           "a",
				StartedAt:    time.UnixMilli(1_000),
				Duration:     1500 * time.Millisecond,
				Status:       "ok",
				Location:     "Brooklyn, New York",
				SleepSeconds: 3600,
			},
		},
		{
			name: "failed run",
			run: Run{
				ID:           "b",
				StartedAt:    time.UnixMilli(2_000),
				Duration:     200 * time.Millisecond,
				Status:       "failed",
				FailureKind:  "transport",
				Error:        "transport: onecall: OpenWeatherMap API error: 502",
				SleepSeconds: 900,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := testDB.RecordRun(tt.run); err != nil {
				t.Fatalf("RecordRun() error = %v", err)
			}
		})
	}

	runs, err := testDB.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "b" || runs[1].ID != "a" {
		t.Errorf("Expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}
	if runs[0].FailureKind != "transport" || runs[0].SleepSeconds != 900 {
		t.Errorf("Unexpected failed run: %+v", runs[0])
	}
	if runs[1].Duration != 1500*time.Millisecond || runs[1].Location != "Brooklyn, New York" {
		t.Errorf("Unexpected ok run: %+v", runs[1])
	}

	if err := testDB.RecordRun(tests[0].run); err == nil {
		t.Error("Expected error for duplicate run id, got nil")
	}
}

func TestNewDB(t *testing.T) {
	// Test with a temporary database file
	tmpDir := t.TempDir()
	tmpFile := tmpDir + "/test_magtag.db"

	db, err := NewDB(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create new DB: %v", err)
	}
	defer db.Close()

	// Verify we can ping it
	if err := db.Ping(); err != nil {
		t.Errorf("Failed to ping DB: %v", err)
	}
	if err := db.SaveFrame(Frame{Panel: "file", PNG: []byte{1}}); err != nil {
		t.Errorf("SaveFrame() on new DB error = %v", err)
	}
}

func TestNewDBFromEnv(t *testing.T) {
	tmpFile := t.TempDir() + "/env.db"
	t.Setenv("DB_PATH", tmpFile)

	db, err := NewDB("")
	if err != nil {
		t.Fatalf("Failed to create new DB: %v", err)
	}
	defer db.Close()
}

func TestNilDB(t *testing.T) {
	var db *DB
	expectedMsg := "database not initialized"

	checks := map[string]error{
		"SaveFrame":   db.SaveFrame(Frame{}),
		"RecordRun":   db.RecordRun(Run{}),
		"PruneFrames": db.PruneFrames("file", 1),
	}
	_, err := db.LastFrame("file")
	checks["LastFrame"] = err
	_, err = db.RecentRuns(1)
	checks["RecentRuns"] = err

	for name, err := range checks {
		if err == nil {
			t.Errorf("%s: expected error for nil database, got nil", name)
			continue
		}
		if err.Error() != expectedMsg {
			t.Errorf("%s: expected error message %q, got %q", name, expectedMsg, err.Error())
		}
	}
}
