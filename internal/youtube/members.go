package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// maxMemberPages is the default bound on browse requests for one playlist.
const maxMemberPages = 50

type browseRequest struct {
	Context      innertubeContext `json:"context"`
	BrowseID     string           `json:"browseId,omitempty"`
	Continuation string           `json:"continuation,omitempty"`
}

type browseResponse struct {
	Contents *struct {
		TwoColumnBrowseResultsRenderer *struct {
			Tabs []struct {
				TabRenderer *struct {
					Content *struct {
						SectionListRenderer *struct {
							Contents []struct {
								ItemSectionRenderer *struct {
									Contents []struct {
										PlaylistVideoListRenderer *struct {
											Contents []playlistItem `json:"contents"`
										} `json:"playlistVideoListRenderer,omitempty"`
									} `json:"contents"`
								} `json:"itemSectionRenderer,omitempty"`
							} `json:"contents"`
						} `json:"sectionListRenderer,omitempty"`
					} `json:"content,omitempty"`
				} `json:"tabRenderer,omitempty"`
			} `json:"tabs"`
		} `json:"twoColumnBrowseResultsRenderer,omitempty"`
	} `json:"contents,omitempty"`
	OnResponseReceivedActions []struct {
		AppendContinuationItemsAction *struct {
			ContinuationItems []playlistItem `json:"continuationItems"`
		} `json:"appendContinuationItemsAction,omitempty"`
	} `json:"onResponseReceivedActions,omitempty"`
}

type playlistItem struct {
	PlaylistVideoRenderer *struct {
		VideoID string `json:"videoId"`
	} `json:"playlistVideoRenderer,omitempty"`
	ContinuationItemRenderer *continuationItemRenderer `json:"continuationItemRenderer,omitempty"`
}

// PlaylistMembers returns the video ids of a playlist in playlist order.
// A video listed twice appears twice. A response without a playlist video
// list yields ErrMalformedPage and a playlist longer than the page limit
// yields ErrPlaylistTooLarge.
func (c *Client) PlaylistMembers(ctx context.Context, playlistID string) ([]string, error) {
	playlistID = strings.TrimSpace(playlistID)
	if playlistID == "" {
		return nil, errors.New("playlist id is required")
	}

	var (
		members []string
		token   string
	)
	for page := 0; page < c.memberPageLimit; page++ {
		req := browseRequest{Context: c.innertubeContext()}
		if page == 0 {
			req.BrowseID = "VL" + playlistID
		} else {
			req.Continuation = token
		}

		var resp browseResponse
		if err := c.postInnertube(ctx, "browse", req, &resp); err != nil {
			return nil, err
		}
		items, err := resp.playlistItems(page == 0)
		if err != nil {
			return nil, fmt.Errorf("playlist %s: %w", playlistID, err)
		}

		token = ""
		for _, item := range items {
			if t := item.ContinuationItemRenderer.token(); t != "" {
				token = t
			}
			if item.PlaylistVideoRenderer == nil {
				continue
			}
			id := strings.TrimSpace(item.PlaylistVideoRenderer.VideoID)
			if id == "" {
				continue
			}
			members = append(members, id)
		}
		if token == "" {
			return members, nil
		}
	}
	return nil, fmt.Errorf("%w: playlist %s has more than %d pages", ErrPlaylistTooLarge, playlistID, c.memberPageLimit)
}

func (r *browseResponse) playlistItems(initial bool) ([]playlistItem, error) {
	if !initial {
		for _, action := range r.OnResponseReceivedActions {
			if action.AppendContinuationItemsAction != nil {
				return action.AppendContinuationItemsAction.ContinuationItems, nil
			}
		}
		return nil, fmt.Errorf("%w: continuation response without items", ErrMalformedPage)
	}
	if r.Contents == nil || r.Contents.TwoColumnBrowseResultsRenderer == nil {
		return nil, fmt.Errorf("%w: browse response without contents", ErrMalformedPage)
	}
	for _, tab := range r.Contents.TwoColumnBrowseResultsRenderer.Tabs {
		if tab.TabRenderer == nil || tab.TabRenderer.Content == nil || tab.TabRenderer.Content.SectionListRenderer == nil {
			continue
		}
		for _, section := range tab.TabRenderer.Content.SectionListRenderer.Contents {
			if section.ItemSectionRenderer == nil {
				continue
			}
			for _, content := range section.ItemSectionRenderer.Contents {
				if content.PlaylistVideoListRenderer != nil {
					return content.PlaylistVideoListRenderer.Contents, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("%w: browse response without playlist video list", ErrMalformedPage)
}
