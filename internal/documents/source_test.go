package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestLocalSource(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "nested")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, content := range map[string]string{
		filepath.Join(dir, "a.txt"):      "Java developer",
		filepath.Join(dir, "notes.md"):   "ignored",
		filepath.Join(nested, "b.TXT"):   "Python developer",
		filepath.Join(dir, "single.bin"): "explicit files are always listed",
	} {
		if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	source := NewLocalSource(dir, filepath.Join(dir, "single.bin"))
	files, err := source.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := []string{filepath.Join(dir, "a.txt"), filepath.Join(nested, "b.TXT"), filepath.Join(dir, "single.bin")}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("expected %v, got %v", want, files)
	}

	doc, err := source.Fetch(context.Background(), files[0])
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if doc.Name != "a.txt" || doc.Source != "local" || doc.MIME != MIMEText {
		t.Fatalf("unexpected document: %+v", doc)
	}
	text, err := doc.Text()
	if err != nil || text != "Java developer" {
		t.Fatalf("unexpected text %q / %v", text, err)
	}

	if _, err := NewLocalSource(filepath.Join(dir, "missing")).List(context.Background()); err == nil {
		t.Fatalf("expected error for a missing path")
	}
}

type fakeObjectAPI struct {
	pages    []*s3.ListObjectsV2Output
	objects  map[string]string
	failures int
	gets     int
}

func (f *fakeObjectAPI) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gets++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("connection reset")
	}
	body, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, errors.New("no such key")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(body)))}, nil
}

func (f *fakeObjectAPI) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if params.ContinuationToken == nil {
		return f.pages[0], nil
	}
	return f.pages[1], nil
}

func TestS3SourceList(t *testing.T) {
	t.Parallel()

	api := &fakeObjectAPI{pages: []*s3.ListObjectsV2Output{
		{
			Contents:              []types.Object{{Key: aws.String("cv/a.pdf")}, {Key: aws.String("cv/readme.md")}},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("next"),
		},
		{
			Contents: []types.Object{{Key: aws.String("cv/b.docx")}},
		},
	}}

	keys, err := newS3Source(api, "bucket", "cv/").List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"cv/a.pdf", "cv/b.docx"}) {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestS3SourceFetchRetries(t *testing.T) {
	t.Parallel()

	api := &fakeObjectAPI{objects: map[string]string{"cv/a.txt": "Java"}, failures: 1}
	source := newS3Source(api, "bucket", "")

	doc, err := source.Fetch(context.Background(), "cv/a.txt")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if api.gets != 2 {
		t.Fatalf("expected 2 attempts, got %d", api.gets)
	}
	if doc.Name != "a.txt" || doc.MIME != MIMEText || string(doc.Data) != "Java" {
		t.Fatalf("unexpected document: %+v", doc)
	}

	source.attempts = 1
	if _, err := source.Fetch(context.Background(), "cv/missing.txt"); err == nil {
		t.Fatalf("expected error for missing key")
	}
}
