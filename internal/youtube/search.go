package youtube

import (
	"context"
	"fmt"
	"strings"
)

// playlistSearchParams is the serialized search filter "type: playlist".
const playlistSearchParams = "EgIQAw=="

// Candidate is one playlist returned by a search page.
type Candidate struct {
	PlaylistID  string
	Title       string
	ChannelID   string
	ChannelName string
}

// Pager walks the pages of one search. Next returns an empty page once the
// results are exhausted.
type Pager interface {
	Next(ctx context.Context) ([]Candidate, error)
}

// SearchPager pages through playlist search results using continuation tokens.
type SearchPager struct {
	client  *Client
	phrase  string
	token   string
	started bool
	done    bool
	pages   int
}

// Search starts a playlist search for phrase. No request is made until Next.
func (c *Client) Search(phrase string) Pager {
	return &SearchPager{client: c, phrase: strings.TrimSpace(phrase)}
}

// Pages returns how many pages have been fetched.
func (p *SearchPager) Pages() int {
	return p.pages
}

type searchRequest struct {
	Context      innertubeContext `json:"context"`
	Query        string           `json:"query,omitempty"`
	Params       string           `json:"params,omitempty"`
	Continuation string           `json:"continuation,omitempty"`
}

type searchResponse struct {
	Contents *struct {
		TwoColumnSearchResultsRenderer *struct {
			PrimaryContents *struct {
				SectionListRenderer *struct {
					Contents []searchSection `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
	OnResponseReceivedCommands []struct {
		AppendContinuationItemsAction *struct {
			ContinuationItems []searchSection `json:"continuationItems"`
		} `json:"appendContinuationItemsAction"`
	} `json:"onResponseReceivedCommands"`
}

type searchSection struct {
	ItemSectionRenderer *struct {
		Contents []searchItem `json:"contents"`
	} `json:"itemSectionRenderer,omitempty"`
	ContinuationItemRenderer *continuationItemRenderer `json:"continuationItemRenderer,omitempty"`
}

type searchItem struct {
	PlaylistRenderer *playlistRenderer `json:"playlistRenderer,omitempty"`
}

type playlistRenderer struct {
	PlaylistID      string    `json:"playlistId"`
	Title           *textRuns `json:"title"`
	ShortBylineText *textRuns `json:"shortBylineText"`
	LongBylineText  *textRuns `json:"longBylineText"`
}

// Next fetches the following page of candidates.
func (p *SearchPager) Next(ctx context.Context) ([]Candidate, error) {
	if p.done {
		return nil, nil
	}
	if p.phrase == "" {
		p.done = true
		return nil, nil
	}

	req := searchRequest{Context: p.client.innertubeContext()}
	if p.started {
		req.Continuation = p.token
	} else {
		req.Query = p.phrase
		req.Params = playlistSearchParams
	}

	var resp searchResponse
	if err := p.client.postInnertube(ctx, "search", req, &resp); err != nil {
		return nil, err
	}
	sections, err := resp.sections()
	if err != nil {
		return nil, err
	}
	p.started = true
	p.pages++

	candidates, token := parseSearchSections(sections)
	p.token = token
	if token == "" || len(candidates) == 0 {
		p.done = true
	}
	return candidates, nil
}

func (r *searchResponse) sections() ([]searchSection, error) {
	if r.Contents != nil {
		two := r.Contents.TwoColumnSearchResultsRenderer
		if two == nil || two.PrimaryContents == nil || two.PrimaryContents.SectionListRenderer == nil {
			return nil, fmt.Errorf("%w: search results missing section list", ErrMalformedPage)
		}
		return two.PrimaryContents.SectionListRenderer.Contents, nil
	}
	for _, cmd := range r.OnResponseReceivedCommands {
		if cmd.AppendContinuationItemsAction != nil {
			return cmd.AppendContinuationItemsAction.ContinuationItems, nil
		}
	}
	return nil, fmt.Errorf("%w: search response has neither contents nor continuation items", ErrMalformedPage)
}

func parseSearchSections(sections []searchSection) ([]Candidate, string) {
	var (
		candidates []Candidate
		token      string
	)
	for _, section := range sections {
		if t := section.ContinuationItemRenderer.token(); t != "" {
			token = t
		}
		if section.ItemSectionRenderer == nil {
			continue
		}
		for _, item := range section.ItemSectionRenderer.Contents {
			if c, ok := item.PlaylistRenderer.candidate(); ok {
				candidates = append(candidates, c)
			}
		}
	}
	return candidates, token
}

func (r *playlistRenderer) candidate() (Candidate, bool) {
	if r == nil || strings.TrimSpace(r.PlaylistID) == "" {
		return Candidate{}, false
	}
	c := Candidate{
		PlaylistID: strings.TrimSpace(r.PlaylistID),
		Title:      strings.TrimSpace(r.Title.text()),
	}
	byline := r.ShortBylineText
	if byline == nil || len(byline.Runs) == 0 {
		byline = r.LongBylineText
	}
	if byline != nil {
		for _, run := range byline.Runs {
			if run.NavigationEndpoint != nil && run.NavigationEndpoint.BrowseEndpoint != nil {
				c.ChannelID = run.NavigationEndpoint.BrowseEndpoint.BrowseID
				c.ChannelName = strings.TrimSpace(run.Text)
				break
			}
		}
		if c.ChannelName == "" {
			c.ChannelName = strings.TrimSpace(byline.text())
		}
	}
	return c, true
}
