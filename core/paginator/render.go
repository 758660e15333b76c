package paginator

import "strings"

// Embed slots an attachment can be bound to, matched by file name prefix.
const (
	slotImage     = "image"
	slotThumbnail = "thumbnail"
	slotAuthor    = "author"
	slotFooter    = "footer"
)

// renderPage resolves the embed and attachment shown for index. The returned
// embed is a copy, so binding never leaks into the caller's pages.
func renderPage(pages []*Embed, files []*File, index int) Page {
	embed := pages[index].Clone()
	file := attachmentAt(files, index)
	if file == nil {
		return Page{Embed: embed}
	}
	bindAttachment(embed, file)
	return Page{Embed: embed, File: file}
}

// attachmentAt returns the file aligned with index, if any.
func attachmentAt(files []*File, index int) *File {
	if index < 0 || index >= len(files) {
		return nil
	}
	return files[index]
}

// bindAttachment points the first slot whose name prefixes the file name at
// the uploaded file. Author and footer slots are bound only when the embed has them.
func bindAttachment(e *Embed, f *File) {
	uri := f.URI()
	switch {
	case strings.HasPrefix(f.Name, slotImage):
		e.Image = &EmbedMedia{URL: uri}
	case strings.HasPrefix(f.Name, slotThumbnail):
		e.Thumbnail = &EmbedMedia{URL: uri}
	case strings.HasPrefix(f.Name, slotAuthor):
		if e.Author != nil {
			e.Author.IconURL = uri
		}
	case strings.HasPrefix(f.Name, slotFooter):
		if e.Footer != nil {
			e.Footer.IconURL = uri
		}
	}
}
