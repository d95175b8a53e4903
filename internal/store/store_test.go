package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpen(t *testing.T) {
	tmpDir := t.TempDir()
	st, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	// Verify database file was created
	dbPath := filepath.Join(tmpDir, "parasol.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("parasol.db was not created")
	}
	if st.Path() != dbPath {
		t.Errorf("Path() = %s, want %s", st.Path(), dbPath)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	nestedDir := filepath.Join(tmpDir, "nested", "parasol")

	st, err := Open(nestedDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	if _, err := os.Stat(nestedDir); os.IsNotExist(err) {
		t.Error("Nested directory was not created")
	}
}

func TestPutAndGetReport(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	payload := []byte(`{"location":"Shenzhen","rain_probability":90}`)
	if err := st.PutReport("shenzhen", payload); err != nil {
		t.Fatalf("PutReport failed: %v", err)
	}

	got, ok, err := st.GetReport("shenzhen", time.Hour)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != string(payload) {
		t.Errorf("payload = %s, want %s", got, payload)
	}
}

func TestGetReportMiss(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	_, ok, err := st.GetReport("atlantis", time.Hour)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if ok {
		t.Error("expected cache miss for unknown city")
	}
}

func TestGetReportStale(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	if err := st.PutReport("beijing", []byte(`{}`)); err != nil {
		t.Fatalf("PutReport failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	_, ok, err := st.GetReport("beijing", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if ok {
		t.Error("expected stale entry to miss")
	}

	// Zero maxAge disables the staleness check
	_, ok, err = st.GetReport("beijing", 0)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if !ok {
		t.Error("expected hit with staleness check disabled")
	}
}

func TestPutReportUpsert(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	if err := st.PutReport("beijing", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("PutReport failed: %v", err)
	}
	if err := st.PutReport("beijing", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("PutReport failed: %v", err)
	}

	got, ok, err := st.GetReport("beijing", time.Hour)
	if err != nil || !ok {
		t.Fatalf("GetReport failed: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"v":2}` {
		t.Errorf("expected replaced payload, got %s", got)
	}

	n, err := st.CountReports()
	if err != nil {
		t.Fatalf("CountReports failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 report after upsert, got %d", n)
	}
}

func TestClearReports(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	st.PutReport("beijing", []byte(`{}`))
	st.PutReport("shenzhen", []byte(`{}`))

	removed, err := st.ClearReports()
	if err != nil {
		t.Fatalf("ClearReports failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	n, _ := st.CountReports()
	if n != 0 {
		t.Errorf("expected empty cache, got %d", n)
	}
}

func TestReopenKeepsReports(t *testing.T) {
	tmpDir := t.TempDir()

	st, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := st.PutReport("shenzhen", []byte(`{"humidity":85}`)); err != nil {
		t.Fatalf("PutReport failed: %v", err)
	}
	st.Close()

	st2, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer st2.Close()

	got, ok, err := st2.GetReport("shenzhen", time.Hour)
	if err != nil || !ok {
		t.Fatalf("GetReport after reopen failed: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"humidity":85}` {
		t.Errorf("unexpected payload after reopen: %s", got)
	}
}
