package fileid

import (
	"path/filepath"
	"testing"
)

func TestMaterialID(t *testing.T) {
	// Deterministic: same path gives same ID
	id1 := MaterialID("/course/notes.txt")
	id2 := MaterialID("/course/notes.txt")
	if id1 != id2 {
		t.Errorf("same path should give same ID: %q vs %q", id1, id2)
	}
	if id1 == "" {
		t.Error("ID should not be empty")
	}
	if id1[:len(prefix)] != prefix {
		t.Errorf("ID should have prefix %q: got %q", prefix, id1)
	}
}

func TestMaterialID_differentPaths(t *testing.T) {
	id1 := MaterialID("/course/notes.txt")
	id2 := MaterialID("/course/slides.txt")
	if id1 == id2 {
		t.Errorf("different paths should give different IDs: %q", id1)
	}
}

func TestMaterialID_normalized(t *testing.T) {
	// Clean path: /a/b and /a/b/ and /a/./b should match
	id1 := MaterialID("/course/week1")
	id2 := MaterialID("/course/week1/")
	id3 := MaterialID("/course/./week1")
	if id1 != id2 {
		t.Errorf("paths differing only by trailing slash should match: %q vs %q", id1, id2)
	}
	if id1 != id3 {
		t.Errorf("paths with . should normalize: %q vs %q", id1, id3)
	}
}

func TestMaterialID_absoluteFromFilepath(t *testing.T) {
	abs, _ := filepath.Abs(".")
	id := MaterialID(abs)
	if id == "" || id[:len(prefix)] != prefix {
		t.Errorf("absolute path: got %q", id)
	}
}
