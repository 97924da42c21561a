package warranty

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
)

// batchSize caps the number of status fetches in flight at once. Chunks run
// strictly one after another; fetches inside a chunk run concurrently.
const batchSize = 10

// CheckStatus fetches one asset's warranty status. A non-OK response and a
// transport error both collapse to an error-flagged "not registered" status;
// callers must check Error before treating IsRegistered == false as
// authoritative.
func (c *Client) CheckStatus(ctx context.Context, assetID FlexID) Status {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/warranty/check/"+assetID.String()+"/", nil)
	if err != nil {
		return statusFailure("Network error. Please try again.")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return statusFailure("Network error. Please try again.")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusFailure("Failed to check warranty status")
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return statusFailure("Network error. Please try again.")
	}
	return status
}

// BatchCheckStatus fetches status for every identifier, in chunks of
// batchSize. Chunk N+1 does not start until every fetch in chunk N has
// settled. One failed fetch flags only its own identifier; the rest of the
// chunk and batch carry on. The result holds exactly one entry per input
// identifier, keyed by FlexID.Key (duplicates: last write wins).
func (c *Client) BatchCheckStatus(ctx context.Context, assetIDs []FlexID) map[string]Status {
	results := make(map[string]Status, len(assetIDs))

	for start := 0; start < len(assetIDs); start += batchSize {
		end := start + batchSize
		if end > len(assetIDs) {
			end = len(assetIDs)
		}
		chunk := assetIDs[start:end]

		statuses := make([]Status, len(chunk))
		var wg sync.WaitGroup
		for i, id := range chunk {
			wg.Add(1)
			go func(i int, id FlexID) {
				defer wg.Done()
				statuses[i] = c.CheckStatus(ctx, id)
			}(i, id)
		}
		wg.Wait()

		for i, id := range chunk {
			results[id.Key()] = statuses[i]
		}
	}

	return results
}

func statusFailure(message string) Status {
	return Status{
		IsRegistered: false,
		Message:      message,
		Error:        true,
	}
}
