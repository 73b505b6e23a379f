package services

import (
	"fmt"

	"learnify/backend/models"
	"learnify/backend/storage"
)

const (
	LectureDefault    = "default"
	LectureAdditional = "additional"
)

// Lecture is one entry of the learner facing lecture list.
type Lecture struct {
	Number       int    `json:"number"`
	Type         string `json:"type"`
	Video        string `json:"video,omitempty"`
	VideoName    string `json:"video_name,omitempty"`
	Document     string `json:"document,omitempty"`
	DocumentName string `json:"document_name,omitempty"`
	Completed    bool   `json:"completed"`
}

// additionalBase is the number after which additional lectures are
// numbered: the declared count, or the uploaded count if that is larger.
func additionalBase(c *models.Course) int {
	base := c.NumVideos
	if n := len(c.VideoURLs); n > base {
		base = n
	}
	if n := len(c.DocumentURLs); n > base {
		base = n
	}
	return base
}

// BuildLectures pairs videos and documents by position, then appends the
// additional lectures. Additional lectures are numbered after the declared
// count so numbers never move when default media is uploaded later.
func BuildLectures(c *models.Course, completed []int) []Lecture {
	done := make(map[int]bool, len(completed))
	for _, n := range completed {
		done[n] = true
	}

	count := len(c.VideoURLs)
	if len(c.DocumentURLs) > count {
		count = len(c.DocumentURLs)
	}

	out := make([]Lecture, 0, count+len(c.AdditionalLectures))
	for i := 0; i < count; i++ {
		l := Lecture{Number: i + 1, Type: LectureDefault}
		if i < len(c.VideoURLs) {
			l.Video = c.VideoURLs[i]
			l.VideoName = nameOr(storage.DisplayName(l.Video), fmt.Sprintf("Video %d", i+1))
		}
		if i < len(c.DocumentURLs) {
			l.Document = c.DocumentURLs[i]
			l.DocumentName = nameOr(storage.DisplayName(l.Document), fmt.Sprintf("Document %d", i+1))
		}
		l.Completed = done[l.Number]
		out = append(out, l)
	}

	base := additionalBase(c)
	for i, extra := range c.AdditionalLectures {
		l := Lecture{Number: base + i + 1, Type: LectureAdditional, Video: extra.Video, Document: extra.Document}
		if extra.Video != "" {
			l.VideoName = nameOr(extra.Names.Video, fmt.Sprintf("Additional Video %d", i+1))
		}
		if extra.Document != "" {
			l.DocumentName = nameOr(extra.Names.Document, fmt.Sprintf("Additional Document %d", i+1))
		}
		l.Completed = done[l.Number]
		out = append(out, l)
	}
	return out
}

// LectureSlot is the admin view of one declared or additional lecture.
type LectureSlot struct {
	Number       int    `json:"number"`
	Type         string `json:"type"`
	Video        string `json:"video"`
	VideoName    string `json:"video_name"`
	Document     string `json:"document"`
	DocumentName string `json:"document_name"`
	Uploaded     bool   `json:"uploaded"`
}

// LectureSlots lists declared slots first, then additional lectures.
func LectureSlots(c *models.Course) (slots []LectureSlot, complete bool) {
	complete = true
	for i := 0; i < c.NumVideos; i++ {
		s := LectureSlot{
			Number:       i + 1,
			Type:         LectureDefault,
			VideoName:    fmt.Sprintf("Lecture Video %d", i+1),
			DocumentName: fmt.Sprintf("Lecture Document %d", i+1),
		}
		if i < len(c.VideoURLs) {
			s.Video = c.VideoURLs[i]
			s.VideoName = nameOr(storage.DisplayName(s.Video), s.VideoName)
		}
		if i < len(c.DocumentURLs) {
			s.Document = c.DocumentURLs[i]
			s.DocumentName = nameOr(storage.DisplayName(s.Document), s.DocumentName)
		}
		s.Uploaded = s.Video != ""
		complete = complete && s.Uploaded
		slots = append(slots, s)
	}
	for i, extra := range c.AdditionalLectures {
		s := LectureSlot{
			Number:       additionalBase(c) + i + 1,
			Type:         LectureAdditional,
			Video:        extra.Video,
			VideoName:    nameOr(extra.Names.Video, fmt.Sprintf("Additional Video %d", i+1)),
			Document:     extra.Document,
			DocumentName: nameOr(extra.Names.Document, fmt.Sprintf("Additional Document %d", i+1)),
		}
		s.Uploaded = s.Video != "" || s.Document != ""
		complete = complete && s.Uploaded
		slots = append(slots, s)
	}
	return slots, complete
}

// CheckUploadCapacity reports ErrTooManyLectures when appending the given
// number of files would exceed the declared lecture count.
func CheckUploadCapacity(c *models.Course, newVideos, newDocuments int) error {
	if len(c.VideoURLs)+newVideos > c.NumVideos || len(c.DocumentURLs)+newDocuments > c.NumVideos {
		return ErrTooManyLectures
	}
	return nil
}

// MediaURLs lists every blob referenced by the course.
func MediaURLs(c *models.Course) []string {
	var urls []string
	add := func(u string) {
		if u != "" {
			urls = append(urls, u)
		}
	}
	add(c.ImageURL)
	for _, u := range c.VideoURLs {
		add(u)
	}
	for _, u := range c.DocumentURLs {
		add(u)
	}
	for _, extra := range c.AdditionalLectures {
		add(extra.Video)
		add(extra.Document)
	}
	return urls
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
