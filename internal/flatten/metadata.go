package flatten

import "github.com/Faultbox/meshflat/pkg/scene"

// Metadata keys.
const (
	MetaTitle    = "Title"
	MetaSubject  = "Subject"
	MetaAuthor   = "Author"
	MetaKeywords = "Keywords"
	MetaRevision = "Revision"
	MetaComment  = "Comment"
)

// Metadata returns the scene's document info as a flat key/value map.
func Metadata(s *scene.Scene) map[string]string {
	info := s.Info
	return map[string]string{
		MetaTitle:    info.Title,
		MetaSubject:  info.Subject,
		MetaAuthor:   info.Author,
		MetaKeywords: info.Keywords,
		MetaRevision: info.Revision,
		MetaComment:  info.Comment,
	}
}
