package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/tiff"

	"github.com/gogpu/lensed"
	"github.com/gogpu/lensed/gpucore"
)

func testParams() []*lensed.Parameter {
	return []*lensed.Parameter{
		{ID: "lens.x", Label: "x_L"},
		{ID: "lens.y"},
	}
}

func testResult() *lensed.RunResult {
	return &lensed.RunResult{
		Mean: []float64{1.5, -2}, Sigma: []float64{0.1, 0.2},
		ML: []float64{1.25, -2.5}, MAP: []float64{1.5, -2.25},
		LogEvidence: -100.5, LogEvidenceINS: -99.25, LogEvidenceErr: 0.125,
		MaxLogLike: -80, Chi2DOF: 1.0625,
		Duration: 3*time.Hour + 4*time.Minute + 5*time.Second + 400*time.Millisecond,
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{59*time.Second + 600*time.Millisecond, "00:01:00"},
		{3*time.Hour + 4*time.Minute + 5*time.Second, "03:04:05"},
		{101 * time.Hour, "101:00:00"},
	}
	for _, tt := range tests {
		if got := Duration(tt.d); got != tt.want {
			t.Errorf("Duration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	res := testResult()
	p.Summary(res, testParams())
	out := buf.String()

	for _, want := range []string{
		"done in 03:04:05",
		"log-evidence: -100.5000 ± 0.1250",
		"max log-like: -80.0000",
		"min chi²/dof: 1.0625",
		"  x_L             1.5000      0.1000      1.2500      1.5000",
		"  lens.y         -2.0000      0.2000     -2.5000     -2.2500",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("styled output written to a non-terminal")
	}

	buf.Reset()
	res.Importance = true
	p.Summary(res, testParams())
	if !strings.Contains(buf.String(), "log-evidence: -99.2500") {
		t.Errorf("importance-sampling evidence not reported:\n%s", buf.String())
	}
}

func TestBanner(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Banner()
	if !strings.HasPrefix(buf.String(), "lensed "+lensed.Version+"\n") {
		t.Errorf("banner = %q", buf.String())
	}
}

func TestBatch(t *testing.T) {
	var buf bytes.Buffer
	if err := BatchHeader(&buf, testParams()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("%d header lines, want 2", len(lines))
	}
	wantGroups := "summary" + strings.Repeat(" ", 53) +
		"mean" + strings.Repeat(" ", 20) + "sigma" + strings.Repeat(" ", 19) +
		"ML" + strings.Repeat(" ", 22) + "MAP" + strings.Repeat(" ", 21)
	if lines[0] != wantGroups {
		t.Errorf("groups line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "log-ev              log-lh              chi2/n              x_L         lens.y      x_L") {
		t.Errorf("columns line = %q", lines[1])
	}

	buf.Reset()
	if err := BatchRow(&buf, testResult()); err != nil {
		t.Fatal(err)
	}
	row := buf.String()
	if !strings.HasPrefix(row, "-100.5000           -80.0000            1.0625              1.5000      -2.0000     0.1000") {
		t.Errorf("row = %q", row)
	}
	// every value column lines up with its header column
	if got, want := len(strings.TrimSuffix(row, "\n")), len(lines[1]); got != want {
		t.Errorf("row is %d wide, header %d", got, want)
	}
}

func TestPadWideRunes(t *testing.T) {
	if got := pad("角度", 6); got != "角度  " {
		t.Errorf("pad(wide) = %q", got)
	}
	if got := pad("θ_E", 5); got != "θ_E  " {
		t.Errorf("pad(greek) = %q", got)
	}
	if got := pad("toolong", 3); got != "toolong" {
		t.Errorf("pad(long) = %q", got)
	}
}

func TestWriteParamNames(t *testing.T) {
	root := filepath.Join(t.TempDir(), "fit-")
	if err := WriteParamNames(root, testParams()); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(root + ".paramnames")
	if err != nil {
		t.Fatal(err)
	}
	want := "lens.x                x_L\nlens.y                \n"
	if string(got) != want {
		t.Errorf("paramnames = %q, want %q", got, want)
	}
}

func TestWriteImages(t *testing.T) {
	const w, h = 3, 2
	dump := make([]gpucore.Float4, w*h)
	for i := range dump {
		dump[i].S = [4]float32{float32(i), float32(i) - 2, 1, 0}
	}
	root := filepath.Join(t.TempDir(), "fit-")
	imgs, err := WriteImages(root, dump, w, h)
	if err != nil {
		t.Fatal(err)
	}
	if len(imgs) != 2 || imgs[1].Min != -2 || imgs[1].Max != 3 {
		t.Fatalf("images = %+v", imgs)
	}

	f, err := os.Open(root + "model.tif")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := tiff.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		t.Fatalf("image is %v", b)
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r != 0 {
		t.Errorf("min pixel = %d, want 0", r)
	}
	if r, _, _, _ := img.At(2, 1).RGBA(); r != 0xffff {
		t.Errorf("max pixel = %d, want 65535", r)
	}

	if _, err := WriteImages(root, dump[:4], w, h); err == nil {
		t.Error("WriteImages accepted a short dump")
	}
}
