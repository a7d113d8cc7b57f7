package archive

import (
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/mizunashi-mana/archivedon"
	"github.com/mizunashi-mana/archivedon/ap"
)

// The new storage layout is id-addressed: every archived object must end
// in a digit run, which becomes its identity under entities/.
var trailingDigits = regexp.MustCompile(`([0-9]+)/?$`)

// IdentityError reports an object id the storage scheme cannot address.
type IdentityError struct {
	ID string
}

func (e IdentityError) Error() string {
	return fmt.Sprintf("no trailing numeric id in object id: %s", e.ID)
}

func (e IdentityError) Is(target error) bool {
	_, ok := target.(IdentityError)
	if ok {
		return true
	}
	_, ok = target.(*IdentityError)
	return ok
}

// extractIdentity pulls the trailing digit run out of an object id's path.
func extractIdentity(id string) (string, error) {
	parsed, err := url.Parse(id)
	if err != nil {
		return "", IdentityError{ID: id}
	}
	match := trailingDigits.FindStringSubmatch(parsed.Path)
	if match == nil {
		return "", IdentityError{ID: id}
	}
	return match[1], nil
}

// rewritten is one archived (activity, object) pair with its new identity.
type rewritten struct {
	id       string
	object   *ap.Object
	activity *ap.Object

	// originalURL is the object's external url, if it carried one, for
	// redirect registration.
	originalURL *url.URL
	mediaTypes  []string
}

// rewriteObject re-addresses an object under the account's entity tree,
// preserving content and stamping the rewrite time.
func rewriteObject(account archivedon.Account, staticBase *url.URL, object *ap.Object, now time.Time) (*rewritten, error) {
	id, err := extractIdentity(object.ID)
	if err != nil {
		return nil, err
	}

	newObject := *object
	newObject.ID = account.EntityURL(staticBase, id, "json")
	newObject.Updated = &now

	result := &rewritten{id: id, object: &newObject}

	if object.URL != nil && object.URL.Href != "" {
		originalURL, err := url.Parse(object.URL.Href)
		if err == nil && originalURL.IsAbs() {
			result.originalURL = originalURL
			result.mediaTypes = object.URL.MediaType
			if len(result.mediaTypes) == 0 {
				result.mediaTypes = object.MediaType
			}
			if len(result.mediaTypes) == 0 {
				result.mediaTypes = []string{"*/*"}
			}
		}
		newObject.URL = ap.LinkTo(account.EntityURL(staticBase, id, "html"))
	}

	return result, nil
}

// rewriteActivity re-addresses the owning activity next to its object:
// actor points at the archived actor, origin keeps the original activity
// id for provenance, and the object is embedded context-stripped.
func rewriteActivity(account archivedon.Account, staticBase *url.URL, activity *ap.Object, result *rewritten) *ap.Object {
	newActivity := *activity
	newActivity.ID = account.EntityURL(staticBase, result.id+"/activity", "json")
	newActivity.ActivityItems = ap.ActivityItems{
		Actor:  []ap.ObjectOrLink{ap.Ref(account.ActorURL)},
		Origin: []ap.ObjectOrLink{ap.Ref(activity.ID)},
	}

	embedded := *result.object
	embedded.SchemaContext = nil
	newActivity.ActivityItems.Object = []ap.ObjectOrLink{ap.Embed(&embedded)}

	result.activity = &newActivity
	return &newActivity
}
