package models

import (
	"errors"
	"fmt"
	"strings"
)

// Kind 可投票/可评论的实体类型，只有 club、player、course 三种
type Kind string

const (
	KindClub   Kind = "club"
	KindPlayer Kind = "player"
	KindCourse Kind = "course"
)

// Kinds lists every valid discriminator in a stable order.
var Kinds = []Kind{KindClub, KindPlayer, KindCourse}

var ErrUnknownKind = errors.New("unknown kind")

// ParseKind 解析 votable_type / commentable_type
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindClub, KindPlayer, KindCourse:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) Valid() bool {
	_, err := ParseKind(string(k))
	return err == nil
}

func (k Kind) String() string {
	return string(k)
}

// Ref 多态引用：kind + id
type Ref struct {
	Kind Kind `json:"kind"`
	ID   uint `json:"id"`
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%d", r.Kind, r.ID)
}
