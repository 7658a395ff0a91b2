package client

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/preservio/papi/internal/constants"
	internalhttp "github.com/preservio/papi/internal/http"
	"github.com/preservio/papi/internal/xip"
	"github.com/preservio/papi/pkg/papi"
)

// ContentClient implements papi.ContentClient: generation resolution and
// bitstream streaming.
type ContentClient struct {
	http     *internalhttp.Client
	entities *EntitiesClient
}

// generationResult pairs one decoded generation with its position so the
// fan-out can recombine results in listing order.
type generationResult struct {
	index      int
	generation *xip.Generation
	err        error
}

// Bitstreams resolves every generation of the content object and returns one
// BitStreamInfo per bitstream-generation pairing, ordered by generation then
// by the bitstream order within it. Generation documents are fetched with a
// bounded fan-out and recombined by index, so concurrency never reorders the
// result.
func (c *ContentClient) Bitstreams(ctx context.Context, contentObject *papi.Entity) ([]papi.BitStreamInfo, error) {
	if contentObject.Type != papi.EntityTypeContentObject {
		return nil, fmt.Errorf("%w: requested %s, got %s",
			papi.ErrEntityTypeMismatch, papi.EntityTypeContentObject, contentObject.Type)
	}

	path, err := entityPath(contentObject.Type, contentObject.Ref)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	decoded, err := xip.DecodeEntity(resp.Body)
	if err != nil {
		return nil, err
	}

	generationsURL := decoded.GenerationsURL
	if generationsURL == "" {
		generationsURL = path + "/generations"
	}

	listResp, err := c.http.Get(ctx, generationsURL, nil)
	if err != nil {
		return nil, err
	}

	urls, err := xip.DecodeGenerationURLs(listResp.Body)
	if err != nil {
		return nil, err
	}

	generations, err := c.fetchGenerations(ctx, urls)
	if err != nil {
		return nil, err
	}

	var bitstreams []papi.BitStreamInfo

	for i, generation := range generations {
		for _, bitstreamURL := range generation.BitstreamURLs {
			info, err := c.fetchBitstream(ctx, bitstreamURL)
			if err != nil {
				return nil, err
			}

			info.GenerationVersion = i + 1
			info.GenerationType = generation.Type
			info.ParentTitle = decoded.Entity.Title
			info.ParentRef = decoded.Entity.Ref

			bitstreams = append(bitstreams, *info)
		}
	}

	return bitstreams, nil
}

// fetchGenerations fetches and decodes every generation document with at
// most DefaultFanOutLimit requests in flight, preserving listing order.
func (c *ContentClient) fetchGenerations(ctx context.Context, urls []string) ([]*xip.Generation, error) {
	results := make([]generationResult, len(urls))
	semaphore := make(chan struct{}, constants.DefaultFanOutLimit)

	var wg sync.WaitGroup

	for i, generationURL := range urls {
		wg.Add(1)

		go func(index int, target string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			resp, err := c.http.Get(ctx, target, nil)
			if err != nil {
				results[index] = generationResult{index: index, err: err}

				return
			}

			generation, err := xip.DecodeGeneration(resp.Body)
			results[index] = generationResult{index: index, generation: generation, err: err}
		}(i, generationURL)
	}

	wg.Wait()

	generations := make([]*xip.Generation, len(urls))

	for _, result := range results {
		if result.err != nil {
			return nil, result.err
		}

		generations[result.index] = result.generation
	}

	return generations, nil
}

func (c *ContentClient) fetchBitstream(ctx context.Context, bitstreamURL string) (*papi.BitStreamInfo, error) {
	resp, err := c.http.Get(ctx, bitstreamURL, nil)
	if err != nil {
		return nil, err
	}

	bitstream, err := xip.DecodeBitstream(resp.Body)
	if err != nil {
		return nil, err
	}

	contentURL := bitstream.ContentURL
	if contentURL == "" {
		contentURL = bitstreamURL + "/content"
	}

	return &papi.BitStreamInfo{
		Name:     bitstream.Name,
		FileSize: bitstream.FileSize,
		URL:      contentURL,
		Fixities: bitstream.Fixities,
	}, nil
}

// Download streams one bitstream payload to w and returns the byte count.
// The read timeout is unbounded; ctx cancellation is the only way to abort a
// long transfer.
func (c *ContentClient) Download(ctx context.Context, bitstream *papi.BitStreamInfo, w io.Writer) (int64, error) {
	body, err := c.http.Stream(ctx, bitstream.URL)
	if err != nil {
		return 0, err
	}

	defer func() {
		_ = body.Close()
	}()

	written, err := io.Copy(w, body)
	if err != nil {
		return written, fmt.Errorf("downloading %s: %w", bitstream.Name, err)
	}

	return written, nil
}
