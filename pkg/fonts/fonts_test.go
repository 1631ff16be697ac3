package fonts

import "testing"

func TestFaces(t *testing.T) {
	c := NewCache()
	defer c.Close()

	for _, w := range []Weight{Regular, Bold, Italic} {
		f, err := c.Face(w, 16)
		if err != nil {
			t.Fatalf("Face(%d) error: %v", w, err)
		}
		if f.Metrics().Height <= 0 {
			t.Errorf("Face(%d) height = %v, want > 0", w, f.Metrics().Height)
		}
		again, _ := c.Face(w, 16)
		if again != f {
			t.Errorf("Face(%d) not cached", w)
		}
	}
}
