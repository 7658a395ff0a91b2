package client_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/preservio/papi/pkg/papi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contentObjectServer serves a content object with two generations, each
// holding one bitstream.
func contentObjectServer(t *testing.T) *httptest.Server {
	t.Helper()

	var server *httptest.Server

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := server.URL

		switch r.URL.Path {
		case "/api/entity/content-objects/co1":
			_, _ = w.Write([]byte(`<EntityResponse>
  <CO>
    <Ref>co1</Ref>
    <Title>scan-001.tif</Title>
    <SecurityTag>open</SecurityTag>
  </CO>
  <AdditionalInformation>
    <Generations>` + base + `/api/entity/content-objects/co1/generations</Generations>
  </AdditionalInformation>
</EntityResponse>`))
		case "/api/entity/content-objects/co1/generations":
			_, _ = w.Write([]byte(`<GenerationsResponse>
  <Generations>
    <Generation active="true">` + base + `/generations/1</Generation>
    <Generation active="true">` + base + `/generations/2</Generation>
  </Generations>
</GenerationsResponse>`))
		case "/generations/1":
			_, _ = w.Write([]byte(`<GenerationResponse>
  <Generation original="true"/>
  <Bitstreams>
    <Bitstream>` + base + `/bitstreams/1</Bitstream>
  </Bitstreams>
</GenerationResponse>`))
		case "/generations/2":
			_, _ = w.Write([]byte(`<GenerationResponse>
  <Generation original="false"/>
  <Bitstreams>
    <Bitstream>` + base + `/bitstreams/2</Bitstream>
  </Bitstreams>
</GenerationResponse>`))
		case "/bitstreams/1":
			_, _ = w.Write([]byte(`<BitstreamResponse>
  <Bitstream>
    <Filename>scan-001.tif</Filename>
    <FileSize>4</FileSize>
    <Fixities>
      <Fixity><FixityAlgorithmRef>SHA256</FixityAlgorithmRef><FixityValue>h1</FixityValue></Fixity>
    </Fixities>
  </Bitstream>
  <AdditionalInformation>
    <Content>` + base + `/bitstreams/1/content</Content>
  </AdditionalInformation>
</BitstreamResponse>`))
		case "/bitstreams/2":
			_, _ = w.Write([]byte(`<BitstreamResponse>
  <Bitstream>
    <Filename>scan-001.jp2</Filename>
    <FileSize>2</FileSize>
  </Bitstream>
  <AdditionalInformation>
    <Content>` + base + `/bitstreams/2/content</Content>
  </AdditionalInformation>
</BitstreamResponse>`))
		case "/bitstreams/1/content":
			_, _ = w.Write([]byte("tiff"))
		case "/bitstreams/2/content":
			_, _ = w.Write([]byte("jp"))
		default:
			http.NotFound(w, r)
		}
	})

	server = httptest.NewServer(handler)

	return server
}

func TestContentBitstreams(t *testing.T) {
	t.Parallel()

	server := contentObjectServer(t)
	defer server.Close()

	bitstreams, err := newTestClient(server).Content().Bitstreams(context.Background(), &papi.Entity{
		Type: papi.EntityTypeContentObject,
		Ref:  "co1",
	})
	require.NoError(t, err)
	require.Len(t, bitstreams, 2)

	// Ordering follows the generation listing even though generation
	// documents are fetched concurrently.
	first := bitstreams[0]
	assert.Equal(t, "scan-001.tif", first.Name)
	assert.Equal(t, int64(4), first.FileSize)
	assert.Equal(t, 1, first.GenerationVersion)
	assert.Equal(t, papi.GenerationTypeOriginal, first.GenerationType)
	assert.Equal(t, "scan-001.tif", first.ParentTitle)
	assert.Equal(t, "co1", first.ParentRef)
	require.Len(t, first.Fixities, 1)
	assert.Equal(t, "SHA256", first.Fixities[0].Algorithm)

	second := bitstreams[1]
	assert.Equal(t, "scan-001.jp2", second.Name)
	assert.Equal(t, 2, second.GenerationVersion)
	assert.Equal(t, papi.GenerationTypeDerived, second.GenerationType)
}

func TestContentBitstreamsRequiresContentObject(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for a non content object")
	}))
	defer server.Close()

	_, err := newTestClient(server).Content().Bitstreams(context.Background(), &papi.Entity{
		Type: papi.EntityTypeInformationObject,
		Ref:  "io1",
	})
	assert.ErrorIs(t, err, papi.ErrEntityTypeMismatch)
}

func TestContentBitstreamsNoGenerations(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/entity/content-objects/co1":
			_, _ = w.Write([]byte(`<EntityResponse><CO><Ref>co1</Ref></CO></EntityResponse>`))
		default:
			_, _ = w.Write([]byte(`<GenerationsResponse><Generations/></GenerationsResponse>`))
		}
	}))
	defer server.Close()

	_, err := newTestClient(server).Content().Bitstreams(context.Background(), &papi.Entity{
		Type: papi.EntityTypeContentObject,
		Ref:  "co1",
	})
	assert.ErrorIs(t, err, papi.ErrNoGenerations)
}

func TestContentDownload(t *testing.T) {
	t.Parallel()

	server := contentObjectServer(t)
	defer server.Close()

	var buffer bytes.Buffer

	written, err := newTestClient(server).Content().Download(context.Background(), &papi.BitStreamInfo{
		Name: "scan-001.tif",
		URL:  server.URL + "/bitstreams/1/content",
	}, &buffer)
	require.NoError(t, err)
	assert.Equal(t, int64(4), written)
	assert.Equal(t, "tiff", buffer.String())
}

func TestContentDownloadMissing(t *testing.T) {
	t.Parallel()

	server := contentObjectServer(t)
	defer server.Close()

	var buffer bytes.Buffer

	_, err := newTestClient(server).Content().Download(context.Background(), &papi.BitStreamInfo{
		Name: "gone",
		URL:  server.URL + "/missing/content",
	}, &buffer)
	require.Error(t, err)
	assert.True(t, papi.IsNotFound(err))
}
