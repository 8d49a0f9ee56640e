package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"tweetvault/internal/model"
	"tweetvault/internal/retry"
)

const (
	pinataPinURL      = "https://api.pinata.cloud/pinning/pinFileToIPFS"
	storachaBridgeURL = "https://up.storacha.network/bridge"
)

// Uploader hands a locally stored record to decentralized storage: the file
// is pinned to IPFS via Pinata, then registered with the Storacha bridge
// for Filecoin persistence. Pinning is mandatory; bridge registration is
// best-effort when credentials are configured.
type Uploader struct {
	http       *resty.Client
	pinataJWT  string
	spaceDID   string
	authSecret string
	authToken  string
	policy     retry.Policy
	logger     *zap.Logger
}

func NewUploader(httpClient *resty.Client, pinataJWT, spaceDID, authSecret, authToken string, policy retry.Policy, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{
		http:       httpClient,
		pinataJWT:  pinataJWT,
		spaceDID:   spaceDID,
		authSecret: authSecret,
		authToken:  authToken,
		policy:     policy,
		logger:     logger,
	}
}

// Store uploads the file and returns its storage references.
func (u *Uploader) Store(ctx context.Context, localPath string) (model.StorageResult, error) {
	if u.pinataJWT == "" {
		return model.StorageResult{}, fmt.Errorf("pinata jwt not configured")
	}

	cid, err := u.pin(ctx, localPath)
	if err != nil {
		return model.StorageResult{}, fmt.Errorf("pin to ipfs: %w", err)
	}
	u.logger.Info("pinned to ipfs", zap.String("cid", cid), zap.String("file", localPath))

	result := model.StorageResult{ContentID: cid, RootID: cid}

	if u.spaceDID == "" || u.authSecret == "" || u.authToken == "" {
		return result, nil
	}

	dealRef, err := u.registerBridge(ctx, localPath, cid)
	if err != nil {
		// The pinned copy is retrievable without the bridge registration.
		u.logger.Warn("storacha registration failed", zap.Error(err), zap.String("cid", cid))
		return result, nil
	}
	result.DealID = dealRef
	return result, nil
}

type pinataResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

func (u *Uploader) pin(ctx context.Context, localPath string) (string, error) {
	var payload pinataResponse
	err := u.policy.Do(ctx, func() error {
		resp, err := u.http.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+u.pinataJWT).
			SetFile("file", localPath).
			SetResult(&payload).
			Post(pinataPinURL)
		if err != nil {
			return err
		}
		if resp.StatusCode() == 401 {
			return retry.Permanent(fmt.Errorf("pinata auth rejected"))
		}
		if !resp.IsSuccess() {
			return fmt.Errorf("pinata status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if payload.IpfsHash == "" {
		return "", fmt.Errorf("pinata returned no cid")
	}
	return payload.IpfsHash, nil
}

type bridgeResult struct {
	P struct {
		Out struct {
			OK struct {
				URL     string            `json:"url"`
				Headers map[string]string `json:"headers"`
				Status  string            `json:"status"`
				With    string            `json:"with"`
			} `json:"ok"`
		} `json:"out"`
	} `json:"p"`
}

// registerBridge runs the bridge task pair: store/add allocates space (and
// hands back an upload URL when the shard is new), upload/add registers the
// root. Returns the allocation reference used as the deal id.
func (u *Uploader) registerBridge(ctx context.Context, localPath, cid string) (string, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", localPath, err)
	}

	var allocation []bridgeResult
	err = u.policy.Do(ctx, func() error {
		resp, err := u.bridgeRequest(ctx).
			SetBody(map[string]any{
				"tasks": []any{
					[]any{"store/add", u.spaceDID, map[string]any{
						"link": map[string]string{"/": cid},
						"size": info.Size(),
					}},
				},
			}).
			SetResult(&allocation).
			Post(storachaBridgeURL)
		if err != nil {
			return err
		}
		if !resp.IsSuccess() {
			return fmt.Errorf("bridge store/add status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(allocation) == 0 {
		return "", fmt.Errorf("bridge store/add returned no receipt")
	}

	ok := allocation[0].P.Out.OK
	if ok.URL != "" {
		if err := u.uploadShard(ctx, localPath, ok.URL, ok.Headers, info.Size()); err != nil {
			return "", err
		}
	} else if ok.Status != "done" {
		return "", fmt.Errorf("bridge store/add: no upload url and status %q", ok.Status)
	}

	err = u.policy.Do(ctx, func() error {
		resp, err := u.bridgeRequest(ctx).
			SetBody(map[string]any{
				"tasks": []any{
					[]any{"upload/add", u.spaceDID, map[string]any{
						"root":   map[string]string{"/": cid},
						"shards": []any{map[string]string{"/": cid}},
					}},
				},
			}).
			Post(storachaBridgeURL)
		if err != nil {
			return err
		}
		if !resp.IsSuccess() {
			return fmt.Errorf("bridge upload/add status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if ok.With != "" {
		return ok.With, nil
	}
	return u.spaceDID, nil
}

func (u *Uploader) bridgeRequest(ctx context.Context) *resty.Request {
	return u.http.R().
		SetContext(ctx).
		SetHeader("X-Auth-Secret", u.authSecret).
		SetHeader("Authorization", u.authToken).
		SetHeader("Content-Type", "application/json")
}

func (u *Uploader) uploadShard(ctx context.Context, localPath, url string, headers map[string]string, size int64) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(localPath), err)
	}

	req := u.http.R().SetContext(ctx).SetBody(data)
	for key, value := range headers {
		req.SetHeader(key, value)
	}
	if _, ok := headers["Content-Length"]; !ok {
		req.SetHeader("Content-Length", fmt.Sprintf("%d", size))
	}

	resp, err := req.Put(url)
	if err != nil {
		return fmt.Errorf("upload shard: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("shard upload status %d", resp.StatusCode())
	}
	return nil
}
