package archiving

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/archive"
	testutil "github.com/trezcool/registro/tests"
)

func TestGetArchiveStatistics(t *testing.T) {
	ctx := context.Background()

	t.Run("empty archive", func(t *testing.T) {
		svc := newTestService(newTestStore(t))
		stats, err := svc.GetArchiveStatistics(ctx)
		if err != nil {
			t.Fatalf("GetArchiveStatistics() = %v", err)
		}
		if stats != (archive.Statistics{}) {
			t.Errorf("GetArchiveStatistics() = %+v; want zero counts and no date", stats)
		}
	})

	t.Run("five groups archived", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTestService(st)
		school := testutil.Seed(t, st, 5, 10, 10)
		for _, grp := range school.Groups {
			if _, err := svc.ArchiveStudentGroup(ctx, grp.ID, "dean", "cohort graduated"); err != nil {
				t.Fatalf("ArchiveStudentGroup(%d) = %v", grp.ID, err)
			}
		}

		stats, err := svc.GetArchiveStatistics(ctx)
		if err != nil {
			t.Fatalf("GetArchiveStatistics() = %v", err)
		}
		if stats.TotalGroups != 5 || stats.TotalStudents != 50 || stats.TotalGrades != 500 {
			t.Errorf("GetArchiveStatistics() = %+v; want 5/50/500", stats)
		}
		if stats.LastArchiveDate == nil {
			t.Fatal("LastArchiveDate = nil")
		}
		grps, _ := svc.ListArchivedGroups(ctx)
		if !stats.LastArchiveDate.Equal(grps[0].ArchivedAt) {
			t.Errorf("LastArchiveDate = %v; want the last group's %v", stats.LastArchiveDate, grps[0].ArchivedAt)
		}
	})

	t.Run("last date across collections", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTestService(st)
		school := testutil.Seed(t, st, 1, 2, 1)
		grp := school.Groups[0]
		if _, err := svc.ArchiveStudentGroup(ctx, grp.ID, "dean", "closed"); err != nil {
			t.Fatal(err)
		}
		loner := testutil.CreateStudent(t, st, "X-1", "Late Leaver", nil)
		if _, err := svc.ArchiveStudent(ctx, loner.ID, "registrar", "left"); err != nil {
			t.Fatal(err)
		}

		stats, _ := svc.GetArchiveStatistics(ctx)
		stds, _ := svc.ListArchivedStudents(ctx)
		if stats.LastArchiveDate == nil || !stats.LastArchiveDate.Equal(stds[0].ArchivedAt) {
			t.Errorf("LastArchiveDate = %v; want the later student archival %v", stats.LastArchiveDate, stds[0].ArchivedAt)
		}
	})
}

func TestSearchArchivedGroups(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestService(st)

	for _, g := range []struct{ name, code string }{
		{"Applied Biology", "ABC-1"},
		{"ABC Chemistry", "CHEM-2"},
		{"Abc Physics", "ABC-3"}, // matches on code and name
		{"History", "HIS-4"},
	} {
		grp := testutil.CreateGroup(t, st, g.name, g.code)
		if _, err := svc.ArchiveStudentGroup(ctx, grp.ID, "dean", "closed"); err != nil {
			t.Fatal(err)
		}
	}

	all, err := svc.ListArchivedGroups(ctx)
	if err != nil {
		t.Fatalf("ListArchivedGroups() = %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("got %d archived groups; want 4", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ArchivedAt.After(all[i-1].ArchivedAt) {
			t.Errorf("groups not ordered newest first: %v before %v", all[i-1].ArchivedAt, all[i].ArchivedAt)
		}
	}

	tests := []struct {
		name      string
		term      string
		wantCodes []string
	}{
		{name: "blank is listing", term: "   ", wantCodes: []string{"HIS-4", "ABC-3", "CHEM-2", "ABC-1"}},
		{name: "code or name, deduplicated", term: "abc", wantCodes: []string{"ABC-3", "CHEM-2", "ABC-1"}},
		{name: "name only", term: "HISTORY", wantCodes: []string{"HIS-4"}},
		{name: "no match", term: "zzz", wantCodes: []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			grps, err := svc.SearchArchivedGroups(ctx, tc.term)
			if err != nil {
				t.Fatalf("SearchArchivedGroups(%q) = %v", tc.term, err)
			}
			got := make([]string, 0, len(grps))
			for _, g := range grps {
				got = append(got, g.GroupCode)
			}
			if len(got) != len(tc.wantCodes) {
				t.Fatalf("SearchArchivedGroups(%q) = %v; want %v", tc.term, got, tc.wantCodes)
			}
			for i := range got {
				if got[i] != tc.wantCodes[i] {
					t.Errorf("SearchArchivedGroups(%q) = %v; want %v", tc.term, got, tc.wantCodes)
					break
				}
			}
		})
	}
}

func TestSearchArchivedStudentsAndGrades(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestService(st)
	school := testutil.Seed(t, st, 2, 2, 1)
	for _, grp := range school.Groups {
		if _, err := svc.ArchiveStudentGroup(ctx, grp.ID, "dean", "closed"); err != nil {
			t.Fatal(err)
		}
	}

	listed, _ := svc.ListArchivedStudents(ctx)
	blank, err := svc.SearchArchivedStudents(ctx, "")
	if err != nil || len(blank) != len(listed) || len(listed) != 4 {
		t.Fatalf("SearchArchivedStudents(\"\") = %d, %v; want the 4 listed", len(blank), err)
	}
	for i := range listed {
		if blank[i].ID != listed[i].ID {
			t.Errorf("blank search order differs from listing at %d", i)
		}
	}

	stds, err := svc.SearchArchivedStudents(ctx, "s02")
	if err != nil {
		t.Fatalf("SearchArchivedStudents() = %v", err)
	}
	if len(stds) != 2 {
		t.Errorf("SearchArchivedStudents(\"s02\") = %d students; want 2", len(stds))
	}

	grds, err := svc.SearchArchivedGrades(ctx, "subject 1")
	if err != nil {
		t.Fatalf("SearchArchivedGrades() = %v", err)
	}
	if len(grds) != 4 {
		t.Errorf("SearchArchivedGrades(\"subject 1\") = %d grades; want 4", len(grds))
	}
}

func TestGetArchivedGroupsByDateRange(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(st, Deps{Archiver: &Archiver{NowFunc: testutil.Clock(start, time.Hour)}})

	var archivedAt []time.Time
	for _, code := range []string{"G-1", "G-2", "G-3"} {
		grp := testutil.CreateGroup(t, st, "Group "+code, code)
		if _, err := svc.ArchiveStudentGroup(ctx, grp.ID, "dean", "closed"); err != nil {
			t.Fatal(err)
		}
		snap, _ := svc.SearchArchivedGroups(ctx, code)
		archivedAt = append(archivedAt, snap[0].ArchivedAt)
	}

	tests := []struct {
		name      string
		from, to  time.Time
		wantCount int
		wantErr   bool
	}{
		{name: "inclusive bounds", from: archivedAt[0], to: archivedAt[1], wantCount: 2},
		{name: "single instant", from: archivedAt[2], to: archivedAt[2], wantCount: 1},
		{name: "before everything", from: start.Add(-48 * time.Hour), to: start.Add(-time.Hour), wantCount: 0},
		{name: "start after end", from: archivedAt[2], to: archivedAt[0], wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			grps, err := svc.GetArchivedGroupsByDateRange(ctx, tc.from, tc.to)
			if tc.wantErr {
				if !core.IsValidationError(err) {
					t.Errorf("GetArchivedGroupsByDateRange() = %v; want a validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetArchivedGroupsByDateRange() = %v", err)
			}
			if len(grps) != tc.wantCount {
				t.Errorf("got %d groups; want %d", len(grps), tc.wantCount)
			}
		})
	}
}

func TestDeleteArchived(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestService(st)
	school := testutil.Seed(t, st, 1, 1, 2)
	if _, err := svc.ArchiveStudentGroup(ctx, school.Groups[0].ID, "dean", "closed"); err != nil {
		t.Fatal(err)
	}
	grps, _ := svc.ListArchivedGroups(ctx)
	stds, _ := svc.ListArchivedStudents(ctx)
	grds, _ := svc.ListArchivedGrades(ctx)
	before := countAll(t, st)

	t.Run("unknown id", func(t *testing.T) {
		for name, del := range map[string]func(int64) error{
			"group":   func(id int64) error { return svc.DeleteArchivedGroup(ctx, id) },
			"student": func(id int64) error { return svc.DeleteArchivedStudent(ctx, id) },
			"grade":   func(id int64) error { return svc.DeleteArchivedGrade(ctx, id) },
		} {
			if err := del(999); !IsNotFound(err) {
				t.Errorf("delete archived %s 999 = %v; want not found", name, err)
			}
		}
		if c := countAll(t, st); c != before {
			t.Errorf("store mutated: %+v; want %+v", c, before)
		}
	})

	t.Run("existing ids", func(t *testing.T) {
		if err := svc.DeleteArchivedGrade(ctx, grds[0].ID); err != nil {
			t.Fatalf("DeleteArchivedGrade() = %v", err)
		}
		if err := svc.DeleteArchivedStudent(ctx, stds[0].ID); err != nil {
			t.Fatalf("DeleteArchivedStudent() = %v", err)
		}
		if err := svc.DeleteArchivedGroup(ctx, grps[0].ID); err != nil {
			t.Fatalf("DeleteArchivedGroup() = %v", err)
		}
		c := countAll(t, st)
		if c.archivedGrades != 1 || c.archivedStudents != 0 || c.archivedGroups != 0 {
			t.Errorf("counts = %+v", c)
		}
		if _, err := svc.GetArchivedGrade(ctx, grds[0].ID); !IsNotFound(err) {
			t.Errorf("GetArchivedGrade() after delete = %v; want not found", err)
		}
		// the remaining grade snapshot does not depend on the deleted student snapshot
		if _, err := svc.GetArchivedGrade(ctx, grds[1].ID); err != nil {
			t.Errorf("GetArchivedGrade() = %v", err)
		}
	})
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestService(st)
	school := testutil.Seed(t, st, 1, 2, 2)
	if _, err := svc.ArchiveStudentGroup(ctx, school.Groups[0].ID, "dean", "closed"); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	exp, err := svc.Export(ctx, &buf)
	if err != nil {
		t.Fatalf("Export() = %v", err)
	}
	if exp.Statistics.TotalGrades != 4 {
		t.Errorf("Export() statistics = %+v", exp.Statistics)
	}

	var decoded Export
	if err = json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decoding export: %v", err)
	}
	if len(decoded.Groups) != 1 || len(decoded.Students) != 2 || len(decoded.Grades) != 4 {
		t.Errorf("decoded export has %d groups, %d students, %d grades", len(decoded.Groups), len(decoded.Students), len(decoded.Grades))
	}
	if decoded.Groups[0].Reason != "closed" || decoded.Students[0].Reason != "closed (group deletion)" {
		t.Errorf("metadata lost in export: %+v / %+v", decoded.Groups[0].Metadata, decoded.Students[0].Metadata)
	}
}

func TestMergeGroups(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := archive.ArchivedStudentGroup{ID: 1, Metadata: archive.Metadata{ArchivedAt: at}}
	b := archive.ArchivedStudentGroup{ID: 2, Metadata: archive.Metadata{ArchivedAt: at}}
	c := archive.ArchivedStudentGroup{ID: 3, Metadata: archive.Metadata{ArchivedAt: at.Add(time.Hour)}}

	merged := mergeGroups([]archive.ArchivedStudentGroup{a, c}, []archive.ArchivedStudentGroup{c, b})
	want := []int64{3, 2, 1}
	if len(merged) != len(want) {
		t.Fatalf("mergeGroups() returned %d groups; want %d", len(merged), len(want))
	}
	for i, id := range want {
		if merged[i].ID != id {
			t.Errorf("merged[%d].ID = %d; want %d", i, merged[i].ID, id)
		}
	}
}
