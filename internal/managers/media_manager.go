package managers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	log "github.com/sirupsen/logrus"

	"scribe-server/internal/config"
	"scribe-server/internal/schemas"
)

// uploadAuthLifetime bounds how long a signed upload authorization stays usable.
const uploadAuthLifetime = 60 * time.Second

var ErrMediaUnavailable = errors.New("media service not configured")

// MediaMgr is an interface that outlines the contract for media management.
// It covers deleting stored assets by their delivery URL and issuing signed
// upload authorizations for direct client uploads.
type MediaMgr interface {
	DeleteByURL(ctx context.Context, mediaURL string) error
	UploadAuth(userId string) (*schemas.UploadAuthDTO, error)
}

// MediaManager talks to Cloudinary. A nil client means the media store is not
// configured, deletions then become no-ops and upload authorizations fail.
type MediaManager struct {
	client    *cloudinary.Cloudinary
	apiSecret string
}

// NewMediaManager initializes a new MediaManager from the Cloudinary
// credentials in the configuration. Missing credentials are tolerated so the
// server can run without a media store in development.
func NewMediaManager(cfg *config.Config) MediaMgr {
	log.Info("Initializing media manager")

	if cfg.CloudinaryName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		log.Warn("Cloudinary credentials not set, media operations are disabled")
		return &MediaManager{}
	}

	client, err := cloudinary.NewFromParams(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		log.Warn("Error initializing Cloudinary client: " + err.Error())
		return &MediaManager{}
	}

	return &MediaManager{client: client, apiSecret: cfg.CloudinaryAPISecret}
}

// DeleteByURL removes the asset behind the given delivery URL from the media
// store. URLs that do not point at the store are ignored.
func (mm *MediaManager) DeleteByURL(ctx context.Context, mediaURL string) error {
	if mm.client == nil {
		log.Debug("Media store not configured, skipping deletion of ", mediaURL)
		return nil
	}

	publicID, resourceType, err := extractPublicID(mediaURL)
	if err != nil {
		log.Debug("Skipping deletion of foreign media URL: ", mediaURL)
		return nil
	}

	_, err = mm.client.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("destroying %s: %w", publicID, err)
	}

	log.Debug("Deleted media asset ", publicID)
	return nil
}

// UploadAuth issues a short-lived signed authorization that a client can use
// to upload directly to the media store.
func (mm *MediaManager) UploadAuth(userId string) (*schemas.UploadAuthDTO, error) {
	if mm.client == nil {
		return nil, ErrMediaUnavailable
	}

	now := time.Now()
	expire := now.Add(uploadAuthLifetime).Unix()
	token := fmt.Sprintf("%s_%d", userId, now.Unix())

	params := url.Values{}
	params.Set("token", token)
	params.Set("expire", strconv.FormatInt(expire, 10))

	signature, err := api.SignParameters(params, mm.apiSecret)
	if err != nil {
		return nil, err
	}

	return &schemas.UploadAuthDTO{
		Token:     token,
		Expire:    expire,
		Signature: signature,
	}, nil
}

// extractPublicID derives the public id and resource type from a Cloudinary
// delivery URL, e.g. https://res.cloudinary.com/demo/image/upload/v1/posts/a.jpg
// yields ("posts/a", "image").
func extractPublicID(mediaURL string) (string, string, error) {
	parsed, err := url.Parse(mediaURL)
	if err != nil {
		return "", "", err
	}

	if !strings.HasSuffix(parsed.Host, "cloudinary.com") {
		return "", "", fmt.Errorf("not a media store URL")
	}

	// Path layout: /<cloud>/<resourceType>/upload/[v<version>/]<publicID>.<ext>
	segments := strings.Split(strings.TrimPrefix(parsed.Path, "/"), "/")
	if len(segments) < 4 || segments[2] != "upload" {
		return "", "", fmt.Errorf("unexpected media URL layout")
	}

	resourceType := segments[1]
	rest := segments[3:]
	if len(rest) > 1 && strings.HasPrefix(rest[0], "v") {
		if _, err := strconv.Atoi(rest[0][1:]); err == nil {
			rest = rest[1:]
		}
	}

	publicID := strings.Join(rest, "/")
	if idx := strings.LastIndex(publicID, "."); idx > 0 {
		publicID = publicID[:idx]
	}
	if publicID == "" {
		return "", "", fmt.Errorf("empty public id")
	}

	return publicID, resourceType, nil
}
