package webhooks

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
)

const avatarSize = 256

// FetchAvatar downloads an avatar image and normalizes it to a 256px PNG.
// Avatars are cosmetic, so every failure returns nil and the identity is
// created without one.
func FetchAvatar(ctx context.Context, client *http.Client, url string) []byte {
	if url == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	img, err := imaging.Decode(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil
	}

	img = imaging.Fit(img, avatarSize, avatarSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil
	}
	return buf.Bytes()
}

// avatarReader returns nil for an absent avatar so providers can skip it.
func avatarReader(data []byte) io.Reader {
	if len(data) == 0 {
		return nil
	}
	return bytes.NewReader(data)
}
