package blobx

import (
	"bytes"
	"context"
	"testing"
)

func TestParseURI(t *testing.T) {
	bucket, key, err := ParseURI("s3://astro-raw/uploads/2026/08/file.xml")
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}
	if bucket != "astro-raw" {
		t.Errorf("bucket = %s", bucket)
	}
	if key != "uploads/2026/08/file.xml" {
		t.Errorf("key = %s", key)
	}

	for _, bad := range []string{"", "http://x/y", "s3://", "s3://bucket", "s3://bucket/"} {
		if _, _, err := ParseURI(bad); err == nil {
			t.Errorf("ParseURI(%q) accepted a malformed URI", bad)
		}
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore("astro-raw")
	ctx := context.Background()

	uri, err := store.PutBytes(ctx, "uploads/a.xml", []byte("<people/>"), "application/xml")
	if err != nil {
		t.Fatalf("PutBytes: %v", err)
	}
	if uri != "s3://astro-raw/uploads/a.xml" {
		t.Errorf("uri = %s", uri)
	}

	data, err := store.Read(ctx, uri)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(data, []byte("<people/>")) {
		t.Errorf("data = %q", data)
	}
}

func TestMemoryStoreErrors(t *testing.T) {
	store := NewMemoryStore("astro-raw")
	ctx := context.Background()

	if _, err := store.Read(ctx, "s3://astro-raw/missing"); err == nil {
		t.Error("Read of a missing key succeeded")
	}
	if _, err := store.Read(ctx, "s3://other-bucket/key"); err == nil {
		t.Error("Read from a foreign bucket succeeded")
	}
}
