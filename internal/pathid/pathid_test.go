package pathid

import (
	"strings"
	"testing"
)

func TestForFileIgnoresFolderAndExtension(t *testing.T) {
	a, err := ForFile("/media/movies/vacation.mp4")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ForFile("/archive/old/vacation.mkv")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("same stem should share identity: %s vs %s", a, b)
	}

	c, err := ForFile("/media/movies/holiday.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if a == c {
		t.Fatal("different stems must not collide")
	}
}

func TestForFolderDistinguishesLocation(t *testing.T) {
	a, err := ForFolder("/media/movies")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ForFolder("/backup/movies")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("folders in different locations must get distinct identities")
	}
}

func TestIdentityShape(t *testing.T) {
	fileID, err := ForFile("/media/a.mkv")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(fileID, FilePrefix) {
		t.Fatalf("file identity missing prefix: %s", fileID)
	}
	if got := len(strings.TrimPrefix(fileID, FilePrefix)); got != digestSize*2 {
		t.Fatalf("digest length = %d hex chars, want %d", got, digestSize*2)
	}

	folderID, err := ForFolder("/media")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(folderID, FolderPrefix) {
		t.Fatalf("folder identity missing prefix: %s", folderID)
	}
	if !IsFolderID(folderID) || IsFileID(folderID) {
		t.Fatalf("prefix predicates disagree for %s", folderID)
	}
}

func TestFileAndFolderSchemesNeverCollide(t *testing.T) {
	fileID, err := ForFile("/media/movies.mkv")
	if err != nil {
		t.Fatal(err)
	}
	folderID, err := ForFolder("/media/movies")
	if err != nil {
		t.Fatal(err)
	}
	if fileID == folderID {
		t.Fatal("file and folder identities share a value")
	}
}

func TestForFileDeterministic(t *testing.T) {
	a, err := ForFile("/media/stable.mkv")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ForFile("/media/stable.mkv")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("identity not deterministic: %s vs %s", a, b)
	}
}

func TestForFileRejectsEmpty(t *testing.T) {
	if _, err := ForFile(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := ForFile("   "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestAnonymizeFileKeepsExtension(t *testing.T) {
	got := AnonymizeFile("/media/secret-name.mkv")
	if !strings.HasSuffix(got, ".mkv") {
		t.Fatalf("extension dropped: %s", got)
	}
	if strings.Contains(got, "secret-name") {
		t.Fatalf("stem leaked: %s", got)
	}
	if len(got) != 8+len(".mkv") {
		t.Fatalf("unexpected length for %s", got)
	}
}

func TestAnonymizePath(t *testing.T) {
	got := AnonymizePath("/media/private")
	if len(got) != 8 || strings.Contains(got, "private") {
		t.Fatalf("unexpected anonymized path: %s", got)
	}
}
