package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Category представляет источник голоса
type Category string

const (
	CategoryProvider Category = "provider" // общий каталог провайдера синтеза
	CategoryCloned   Category = "cloned"   // клонированный голос конкретного аккаунта
)

// Visibility представляет видимость голоса в пользовательском каталоге
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// IsValid проверяет валидность видимости
func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate:
		return true
	default:
		return false
	}
}

// ParseVisibility разбирает видимость из строки
func ParseVisibility(s string) (Visibility, error) {
	v := Visibility(strings.ToLower(strings.TrimSpace(s)))
	if !v.IsValid() {
		return "", fmt.Errorf("неизвестная видимость: %q", s)
	}
	return v, nil
}

// Origin - вариант {Provider, Cloned(ownerID)}.
// Владелец существует только у клонированных голосов.
type Origin struct {
	category Category
	ownerID  int64
}

// ProviderOrigin возвращает происхождение голоса провайдера
func ProviderOrigin() Origin {
	return Origin{category: CategoryProvider}
}

// ClonedOrigin возвращает происхождение клонированного голоса
func ClonedOrigin(ownerID int64) Origin {
	return Origin{category: CategoryCloned, ownerID: ownerID}
}

// ParseOrigin собирает происхождение из колонок category и owner_id
func ParseOrigin(category string, ownerID *int64) (Origin, error) {
	switch Category(category) {
	case CategoryProvider:
		if ownerID != nil {
			return Origin{}, fmt.Errorf("у голоса провайдера не может быть владельца")
		}
		return ProviderOrigin(), nil
	case CategoryCloned:
		if ownerID == nil {
			return Origin{}, fmt.Errorf("у клонированного голоса должен быть владелец")
		}
		return ClonedOrigin(*ownerID), nil
	default:
		return Origin{}, fmt.Errorf("неизвестная категория голоса: %q", category)
	}
}

// Category возвращает категорию голоса (пустое значение трактуется как provider)
func (o Origin) Category() Category {
	if o.category == "" {
		return CategoryProvider
	}
	return o.category
}

// OwnerID возвращает владельца клонированного голоса
func (o Origin) OwnerID() (int64, bool) {
	if o.Category() != CategoryCloned {
		return 0, false
	}
	return o.ownerID, true
}

// IsCloned проверяет, клонирован ли голос
func (o Origin) IsCloned() bool {
	return o.Category() == CategoryCloned
}

type originJSON struct {
	Category Category `json:"category"`
	OwnerID  *int64   `json:"owner_id,omitempty"`
}

// MarshalJSON сериализует происхождение
func (o Origin) MarshalJSON() ([]byte, error) {
	out := originJSON{Category: o.Category()}
	if owner, ok := o.OwnerID(); ok {
		out.OwnerID = &owner
	}
	return json.Marshal(out)
}

// UnmarshalJSON разбирает происхождение с проверкой согласованности
func (o *Origin) UnmarshalJSON(data []byte) error {
	var in originJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	parsed, err := ParseOrigin(string(in.Category), in.OwnerID)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Voice представляет строку каталога голосов
type Voice struct {
	ID          int64      `json:"id" db:"id"`
	ExternalID  string     `json:"external_id" db:"external_id"` // идентификатор у провайдера, уникален
	DisplayName string     `json:"display_name" db:"display_name"`
	Origin      Origin     `json:"origin"`
	Visibility  Visibility `json:"visibility" db:"visibility"`
	PreviewURL  *string    `json:"preview_url,omitempty" db:"preview_url"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// HasPreview проверяет наличие превью
func (v Voice) HasPreview() bool {
	return v.PreviewURL != nil && *v.PreviewURL != ""
}

// IsPublic проверяет, виден ли голос всем пользователям
func (v Voice) IsPublic() bool {
	return v.Visibility == VisibilityPublic
}

// VoicePatch представляет частичное изменение строки каталога
type VoicePatch struct {
	DisplayName *string     `json:"name,omitempty"`
	Visibility  *Visibility `json:"visibility,omitempty"`
	PreviewURL  *string     `json:"preview_url,omitempty"`
}

// IsEmpty проверяет, что патч ничего не меняет
func (p VoicePatch) IsEmpty() bool {
	return p.DisplayName == nil && p.Visibility == nil && p.PreviewURL == nil
}

// Apply применяет патч к копии голоса
func (p VoicePatch) Apply(v Voice) Voice {
	if p.DisplayName != nil {
		v.DisplayName = *p.DisplayName
	}
	if p.Visibility != nil {
		v.Visibility = *p.Visibility
	}
	if p.PreviewURL != nil {
		preview := *p.PreviewURL
		v.PreviewURL = &preview
	}
	return v
}

// ProviderVoice представляет голос из внешнего каталога провайдера
type ProviderVoice struct {
	ExternalID string `json:"voice_id"`
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"` // при синхронизации не импортируется
}
