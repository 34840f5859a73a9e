package db_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/hccscore/internal/db"
	"github.com/gyeh/hccscore/internal/model"
)

const (
	testPort     = 15433
	testDB       = "hcctest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var testDSN string

// TestMain starts embedded postgres only when HCCSCORE_EMBEDDED_PG=1.
func TestMain(m *testing.M) {
	if os.Getenv("HCCSCORE_EMBEDDED_PG") != "1" {
		os.Exit(m.Run())
	}

	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30*time.Second),
	)
	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}
	os.Exit(code)
}

func setupStore(t *testing.T) (*db.Store, *pgxpool.Pool) {
	t.Helper()
	if testDSN == "" {
		t.Skip("set HCCSCORE_EMBEDDED_PG=1 to run store tests against embedded postgres")
	}
	ctx := context.Background()

	pool, err := db.NewPool(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := pool.Exec(ctx, "DROP SCHEMA IF EXISTS risk CASCADE"); err != nil {
		t.Fatalf("drop schema: %v", err)
	}
	if err := db.ApplyMigrations(ctx, pool, zerolog.Nop()); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}
	t.Cleanup(pool.Close)
	return db.NewStore(pool, zerolog.Nop()), pool
}

func TestMigrations_Idempotent(t *testing.T) {
	_, pool := setupStore(t)
	if err := db.ApplyMigrations(context.Background(), pool, zerolog.Nop()); err != nil {
		t.Fatalf("second migration run: %v", err)
	}
}

func TestStore_RunLifecycle(t *testing.T) {
	store, pool := setupStore(t)
	ctx := context.Background()

	ref, err := store.LookupRun(ctx, "abc")
	if err != nil {
		t.Fatalf("LookupRun: %v", err)
	}
	if ref != nil {
		t.Fatalf("expected no run, got %+v", ref)
	}

	id := uuid.New()
	run := db.Run{
		ID:          id,
		Fingerprint: "abc",
		AsOf:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Years:       []int{2020, 2024},
		MembersPath: "members.csv",
	}
	if err := store.RegisterRun(ctx, run); err != nil {
		t.Fatalf("RegisterRun: %v", err)
	}

	age := 72
	scores := []model.ScoreRecord{
		{MemberID: "M001", Year: 2024, Age: &age, Bucket: "Community, NonDual, Aged, 70-74 Years, Female",
			Categories: []string{"HCC18", "HCC85"}, RawScore: 1.197, AdjustedScore: 1.1097, Status: model.StatusOK},
		{MemberID: "M005", Year: 2024, Status: model.StatusUnavailable, Reason: "dob_unparseable"},
	}
	n, err := store.CopyScores(ctx, id, scores)
	if err != nil {
		t.Fatalf("CopyScores: %v", err)
	}
	if n != 2 {
		t.Errorf("copied %d scores, want 2", n)
	}

	blend := []model.BlendRecord{
		{MemberID: "M001", Adjusted: map[int]float64{2024: 1.1097}, TotalScore: 0.7768, UnavailableYears: []int{}},
		{MemberID: "M005", Adjusted: map[int]float64{}, UnavailableYears: []int{2024}},
	}
	if n, err := store.CopyBlend(ctx, id, blend, []int{2020, 2024}); err != nil || n != 2 {
		t.Fatalf("CopyBlend: n=%d err=%v", n, err)
	}

	var codes []string
	var adjusted *float64
	if err := pool.QueryRow(ctx,
		"SELECT hcc_codes, adjusted_score FROM risk.patient_scores WHERE run_id = $1 AND member_id = 'M005'", id,
	).Scan(&codes, &adjusted); err != nil {
		t.Fatalf("query scores: %v", err)
	}
	if len(codes) != 0 || adjusted != nil {
		t.Errorf("unavailable row: codes=%v adjusted=%v", codes, adjusted)
	}

	var unavailable []int32
	if err := pool.QueryRow(ctx,
		"SELECT unavailable_years FROM risk.blended_scores WHERE run_id = $1 AND member_id = 'M005'", id,
	).Scan(&unavailable); err != nil {
		t.Fatalf("query blend: %v", err)
	}
	if len(unavailable) != 1 || unavailable[0] != 2024 {
		t.Errorf("unavailable_years = %v", unavailable)
	}

	summary := &model.RunSummary{Members: 2, Years: []model.YearSummary{{Year: 2024, Scored: 1, Unavailable: 1}}, Blended: 2}
	if err := store.FinishRun(ctx, id, summary); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	ref, err = store.LookupRun(ctx, "abc")
	if err != nil || ref == nil {
		t.Fatalf("LookupRun after finish: ref=%v err=%v", ref, err)
	}
	if ref.ID != id || ref.Status != db.RunComplete {
		t.Errorf("unexpected run ref: %+v", ref)
	}

	if err := store.DeleteRunRows(ctx, id); err != nil {
		t.Fatalf("DeleteRunRows: %v", err)
	}
	var left int
	pool.QueryRow(ctx, "SELECT count(*) FROM risk.patient_scores WHERE run_id = $1", id).Scan(&left)
	if left != 0 {
		t.Errorf("expected scores deleted, %d left", left)
	}
}
