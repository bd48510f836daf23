package s3nodes_test

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeObject struct {
	body        []byte
	contentType string
	modified    time.Time
}

// fakeS3 answers the path-style subset of the S3 api the drivers use.
type fakeS3 struct {
	mu        sync.Mutex
	buckets   map[string]map[string]fakeObject
	locations map[string]string
	requests  []string
}

func newFakeS3(t *testing.T, buckets ...string) (*fakeS3, *httptest.Server) {
	t.Helper()

	f := &fakeS3{
		buckets:   map[string]map[string]fakeObject{},
		locations: map[string]string{},
	}

	for _, b := range buckets {
		f.buckets[b] = map[string]fakeObject{}
	}

	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	return f, srv
}

func (f *fakeS3) put(bucket, key string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.buckets[bucket][key] = fakeObject{
		body:     body,
		modified: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func (f *fakeS3) object(bucket, key string) (fakeObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	obj, ok := f.buckets[bucket][key]

	return obj, ok
}

// bucketRequests counts requests with method on the bucket itself.
func (f *fakeS3) bucketRequests(method, bucket string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.requests {
		m, p, _ := strings.Cut(r, " ")
		if m == method && strings.Trim(p, "/") == bucket {
			n++
		}
	}

	return n
}

func (f *fakeS3) requestCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, method+" ") {
			n++
		}
	}

	return n
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	objs, exists := f.buckets[bucket]

	switch {
	case key == "" && r.Method == http.MethodHead:
		if !exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusOK)
	case key == "" && r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.buckets[bucket] = map[string]fakeObject{}
		f.locations[bucket] = string(body)
		w.Header().Set("Location", "/"+bucket)
		w.WriteHeader(http.StatusOK)
	case key == "" && r.Method == http.MethodGet:
		if !exists {
			writeS3Error(w, http.StatusNotFound, "NoSuchBucket")
			return
		}

		f.list(w, r, bucket, objs)
	case !exists:
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket")
	case r.Method == http.MethodPut:
		body, err := readPayload(r)
		if err != nil {
			writeS3Error(w, http.StatusBadRequest, "IncompleteBody")
			return
		}

		objs[key] = fakeObject{
			body:        body,
			contentType: r.Header.Get("Content-Type"),
			modified:    time.Now().UTC().Truncate(time.Second),
		}

		w.Header().Set("ETag", `"fake-etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet || r.Method == http.MethodHead:
		obj, ok := objs[key]
		if !ok {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusNotFound)
				return
			}

			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}

		contentType := obj.contentType
		if contentType == "" {
			contentType = "binary/octet-stream"
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.body)))
		w.Header().Set("ETag", `"fake-etag"`)
		w.Header().Set("Last-Modified", obj.modified.Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)

		if r.Method == http.MethodGet {
			_, _ = w.Write(obj.body)
		}
	default:
		writeS3Error(w, http.StatusMethodNotAllowed, "MethodNotAllowed")
	}
}

type listContent struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int64  `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
}

type listResult struct {
	XMLName     xml.Name      `xml:"ListBucketResult"`
	Name        string        `xml:"Name"`
	Prefix      string        `xml:"Prefix"`
	KeyCount    int           `xml:"KeyCount"`
	MaxKeys     int           `xml:"MaxKeys"`
	IsTruncated bool          `xml:"IsTruncated"`
	Contents    []listContent `xml:"Contents"`
}

func (f *fakeS3) list(w http.ResponseWriter, r *http.Request, bucket string, objs map[string]fakeObject) {
	prefix := r.URL.Query().Get("prefix")

	maxKeys := 1000
	if v, err := strconv.Atoi(r.URL.Query().Get("max-keys")); err == nil && v > 0 {
		maxKeys = v
	}

	keys := make([]string, 0, len(objs))
	for k := range objs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	res := listResult{
		Name:    bucket,
		Prefix:  prefix,
		MaxKeys: maxKeys,
	}

	for _, k := range keys {
		if len(res.Contents) == maxKeys {
			break
		}

		obj := objs[k]
		res.Contents = append(res.Contents, listContent{
			Key:          k,
			LastModified: obj.modified.UTC().Format("2006-01-02T15:04:05.000Z"),
			ETag:         `"fake-etag"`,
			Size:         int64(len(obj.body)),
			StorageClass: "STANDARD",
		})
	}

	res.KeyCount = len(res.Contents)

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, xml.Header)
	_ = xml.NewEncoder(w).Encode(res)
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, "%s<Error><Code>%s</Code><Message>%s</Message></Error>", xml.Header, code, code)
}

// readPayload returns the request body, decoding aws-chunked uploads.
func readPayload(r *http.Request) ([]byte, error) {
	if !strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") {
		return io.ReadAll(r.Body)
	}

	var out bytes.Buffer

	rd := bufio.NewReader(r.Body)
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return nil, err
		}

		sizeHex, _, _ := strings.Cut(strings.TrimSpace(line), ";")

		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, err
		}

		if size == 0 {
			return out.Bytes(), nil
		}

		if _, err := io.CopyN(&out, rd, size); err != nil {
			return nil, err
		}

		if _, err := rd.Discard(2); err != nil {
			return nil, err
		}
	}
}
