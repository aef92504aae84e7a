package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// VideoSuffix is the extension of browsable videos.
const VideoSuffix = ".mp4"

// InstagramMetaSuffix is appended to the video name for scraped post metadata,
// e.g. "reel_01.mp4.json".
const InstagramMetaSuffix = ".mp4.json"

// InstagramMeta is the post metadata shown next to an entry.
type InstagramMeta struct {
	Username      string `json:"username,omitempty"`
	FullName      string `json:"full_name,omitempty"`
	ProfilePicURL string `json:"profile_pic_url,omitempty"`
	PostURL       string `json:"post_url,omitempty"`
	ProfileURL    string `json:"profile_url,omitempty"`
	PostDate      string `json:"post_date,omitempty"`
	Description   string `json:"description,omitempty"`
}

// Entry is a video with a generated quiz document.
type Entry struct {
	// ID is the slash-separated path relative to the data root, without extension.
	ID           string
	Title        string
	Document     *QuizDocument
	IGMeta       *InstagramMeta
	VideoPath    string
	DocumentPath string
	VideoURL     string
	Counts       Counts
}

// ParseInstagramMeta reads scraper output. Several scrapers are supported, so
// each field is taken from the first of its known aliases. A nil result means
// the file carries nothing worth showing.
func ParseInstagramMeta(data []byte) (*InstagramMeta, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	owner, _ := obj["owner"].(map[string]interface{})

	meta := &InstagramMeta{
		Username:    firstString(obj["username"], lookup(owner, "username")),
		FullName:    firstString(obj["fullname"], obj["full_name"], lookup(owner, "full_name")),
		PostURL:     firstString(obj["post_url"], obj["postUrl"], obj["permalink"]),
		PostDate:    firstString(obj["post_date"], obj["date"], obj["taken_at_timestamp"], obj["timestamp"]),
		Description: firstString(obj["description"], obj["caption"]),
		ProfilePicURL: firstString(
			obj["profile_pic_url"],
			lookup(owner, "hd_profile_pic_url_info", "url"),
			lookup(owner, "profile_pic_url"),
			lookup(owner, "profile_pic_url_info", "url"),
		),
	}
	if meta.Username != "" {
		meta.ProfileURL = "https://www.instagram.com/" + meta.Username + "/"
	}
	if meta.Username == "" && meta.ProfilePicURL == "" && meta.PostDate == "" && meta.Description == "" {
		return nil, nil
	}
	return meta, nil
}

func lookup(obj map[string]interface{}, keys ...string) interface{} {
	var cur interface{} = obj
	for _, k := range keys {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

// firstString returns the first non-empty string or non-zero number.
func firstString(values ...interface{}) string {
	for _, v := range values {
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case json.Number:
			if s := t.String(); strings.Trim(s, "0.-") != "" {
				return s
			}
		}
	}
	return ""
}
