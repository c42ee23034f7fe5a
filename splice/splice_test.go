package splice

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-pdf/fpdf"

	"github.com/sfxrentals/dossier/fetch"
	"github.com/sfxrentals/dossier/preview"
	"github.com/sfxrentals/dossier/reader"
	"github.com/sfxrentals/dossier/render"
)

func buildExternalPDF(t *testing.T, orientation string, pages int) []byte {
	t.Helper()
	pdf := fpdf.New(orientation, "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.Text(50, 50, fmt.Sprintf("bijlage pagina %d", i+1))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("building external pdf: %v", err)
	}
	return buf.Bytes()
}

func buildBase(t *testing.T) *render.Base {
	t.Helper()
	base, err := render.NewGenerator().BuildBase(context.Background(), preview.Preview{})
	if err != nil {
		t.Fatalf("BuildBase: %v", err)
	}
	return base
}

func TestFitScale(t *testing.T) {
	cases := []struct {
		srcW, srcH, availW, availH float64
		want                       float64
	}{
		{1000, 500, 500, 500, 0.5},  // width-bound
		{500, 1000, 500, 500, 0.5},  // height-bound
		{100, 100, 500, 500, 1},     // never upscale
		{500, 500, 500, 500, 1},     // exact fit
		{0, 500, 500, 500, 1},       // degenerate source
	}
	for _, tc := range cases {
		got := FitScale(tc.srcW, tc.srcH, tc.availW, tc.availH)
		if got != tc.want {
			t.Errorf("FitScale(%v, %v, %v, %v) = %v, want %v",
				tc.srcW, tc.srcH, tc.availW, tc.availH, got, tc.want)
		}
	}
}

func TestSplicePassthroughWithoutBlobs(t *testing.T) {
	base := buildBase(t)
	out, err := Splice(base, nil)
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	doc, err := reader.Parse(out)
	if err != nil {
		t.Fatalf("parse spliced: %v", err)
	}
	baseDoc, err := reader.Parse(base.PDF)
	if err != nil {
		t.Fatal(err)
	}
	if doc.NumPages() != baseDoc.NumPages() {
		t.Errorf("got %d pages, want %d", doc.NumPages(), baseDoc.NumPages())
	}
}

func TestSpliceAppendsRemainingPages(t *testing.T) {
	base := buildBase(t)
	baseDoc, err := reader.Parse(base.PDF)
	if err != nil {
		t.Fatal(err)
	}

	ext := buildExternalPDF(t, "L", 3)
	out, err := Splice(base, map[string][][]byte{render.KeyWind: {ext}})
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	doc, err := reader.Parse(out)
	if err != nil {
		t.Fatalf("parse spliced: %v", err)
	}

	// First external page is overlaid onto the wind section page, the other
	// two are appended directly after it.
	if want := baseDoc.NumPages() + 2; doc.NumPages() != want {
		t.Fatalf("got %d pages, want %d", doc.NumPages(), want)
	}

	appended, err := doc.Page(base.Pages[render.KeyWind] + 2)
	if err != nil {
		t.Fatal(err)
	}
	if w, h := appended.MediaBox.Width(), appended.MediaBox.Height(); w <= h {
		t.Errorf("appended page not landscape: %vx%v", w, h)
	}
}

func TestSpliceMultipleBlobsKeepOrder(t *testing.T) {
	base := buildBase(t)
	baseDoc, err := reader.Parse(base.PDF)
	if err != nil {
		t.Fatal(err)
	}

	blobs := map[string][][]byte{
		render.KeyEmergency: {
			buildExternalPDF(t, "P", 2),
			buildExternalPDF(t, "P", 1),
		},
	}
	out, err := Splice(base, blobs)
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	doc, err := reader.Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	// First blob: 1 overlay + 1 appended. Second blob: 1 appended.
	if want := baseDoc.NumPages() + 2; doc.NumPages() != want {
		t.Errorf("got %d pages, want %d", doc.NumPages(), want)
	}
}

func TestSpliceSkipsUnparseableBlob(t *testing.T) {
	base := buildBase(t)
	baseDoc, err := reader.Parse(base.PDF)
	if err != nil {
		t.Fatal(err)
	}

	blobs := map[string][][]byte{
		render.KeySiteplan: {[]byte("this is not a pdf")},
	}
	out, err := Splice(base, blobs)
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	doc, err := reader.Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if doc.NumPages() != baseDoc.NumPages() {
		t.Errorf("got %d pages, want %d", doc.NumPages(), baseDoc.NumPages())
	}
}

func TestFetchAllGroupsBySection(t *testing.T) {
	pdfData := buildExternalPDF(t, "P", 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Write(pdfData)
	}))
	defer srv.Close()

	var pv preview.Preview
	pv.Documents.Windplan = srv.URL + "/wind.pdf"
	pv.Documents.Droughtplan = srv.URL + "/missing.pdf"
	pv.Documents.Emergency = preview.RefList{srv.URL + "/e1.pdf", srv.URL + "/e2.pdf"}
	pv.Uploads.Permits = []preview.Upload{{
		Name: "vergunning.pdf",
		Data: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdfData),
	}}

	blobs := FetchAll(context.Background(), fetch.New(), pv)
	if got := len(blobs[render.KeyEmergency]); got != 2 {
		t.Errorf("emergency: got %d blobs, want 2", got)
	}
	if got := len(blobs[render.KeyWind]); got != 1 {
		t.Errorf("wind: got %d blobs, want 1", got)
	}
	if _, ok := blobs[render.KeyDrought]; ok {
		t.Error("unreachable droughtplan should not be collected")
	}
	if !bytes.Equal(blobs[render.KeyPermits][0], pdfData) {
		t.Error("permit upload bytes mismatch")
	}
}
