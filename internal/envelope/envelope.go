// Package envelope декодирует ответы бэкенда CRM в формате RTN:
// [{"RTN_CODE":"OK","RTN_HEADER":"LOGIN","RTN_DATA":{...}}].
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mmeshcher/loyalty-client/internal/apierr"
	"github.com/mmeshcher/loyalty-client/internal/model"
)

// Status описывает значение RTN_CODE.
type Status string

const (
	StatusOK  Status = "OK"
	StatusErr Status = "ERR"
)

const msgMalformed = "The server returned an unexpected response."

// Envelope содержит первый элемент ответа RTN.
type Envelope struct {
	Code   Status          `json:"RTN_CODE"`
	Header string          `json:"RTN_HEADER"`
	Data   json.RawMessage `json:"RTN_DATA"`
}

// Decode разбирает ответ: массив (берётся первый элемент) или одиночный объект.
func Decode(raw []byte) (Envelope, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Envelope{}, malformed(errors.New("empty body"))
	}

	var env Envelope
	switch raw[0] {
	case '[':
		var list []Envelope
		if err := json.Unmarshal(raw, &list); err != nil {
			return Envelope{}, malformed(fmt.Errorf("decode envelope list: %w", err))
		}
		if len(list) == 0 {
			return Envelope{}, malformed(errors.New("empty envelope list"))
		}
		env = list[0]
	case '{':
		if err := json.Unmarshal(raw, &env); err != nil {
			return Envelope{}, malformed(fmt.Errorf("decode envelope: %w", err))
		}
	default:
		return Envelope{}, malformed(errors.New("envelope is not a JSON array or object"))
	}

	if env.Code != StatusOK && env.Code != StatusErr {
		return Envelope{}, malformed(fmt.Errorf("unexpected RTN_CODE %q", env.Code))
	}
	return env, nil
}

// Failure превращает ответ ERR в ошибку с указанным кодом; RTN_DATA содержит текст причины.
func (e Envelope) Failure(code apierr.Code, fallback string) error {
	message := fallback
	var text string
	if err := json.Unmarshal(e.Data, &text); err == nil && strings.TrimSpace(text) != "" {
		message = text
	}
	return apierr.New(code, message)
}

func malformed(err error) error {
	return apierr.Wrap(apierr.MalformedResponse, msgMalformed, err)
}

// BackendMember описывает профиль участника в формате таблицы CRM_VIP.
type BackendMember struct {
	Phone    FlexString `json:"CUSTOMER_TEL"`
	Name     string     `json:"CUSTOMER_NAME"`
	Sex      FlexString `json:"CUSTOMER_SEX"`
	Birthday string     `json:"BIRTHDAY"`
	Email    string     `json:"EMAIL"`
	JoinDate string     `json:"SYS_DATE"`
	MemberNo string     `json:"MEMBER_NO,omitempty"`
}

// FlexString принимает как строку, так и число JSON.
type FlexString string

// UnmarshalJSON реализует json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*f = FlexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

// ToMember переводит профиль бэкенда в модель клиента.
func (b BackendMember) ToMember() model.Member {
	phone := string(b.Phone)

	var gender model.Gender
	switch string(b.Sex) {
	case "1":
		gender = model.GenderMale
	case "2":
		gender = model.GenderFemale
	}

	return model.Member{
		ID:         phone,
		Name:       b.Name,
		Phone:      phone,
		Email:      b.Email,
		JoinDate:   b.JoinDate,
		BirthDate:  b.Birthday,
		Gender:     gender,
		IsVerified: true,
	}
}

// FromMember переводит модель клиента в профиль бэкенда.
func FromMember(m model.Member) BackendMember {
	var sex FlexString
	switch m.Gender {
	case model.GenderMale:
		sex = "1"
	case model.GenderFemale:
		sex = "2"
	}

	return BackendMember{
		Phone:    FlexString(m.Phone),
		Name:     m.Name,
		Sex:      sex,
		Birthday: m.BirthDate,
		Email:    m.Email,
		JoinDate: m.JoinDate,
	}
}

type sessionData struct {
	Member json.RawMessage `json:"member"`
	Token  string          `json:"token"`
}

// SessionPayload содержит полезную нагрузку успешного входа или регистрации.
type SessionPayload struct {
	Member BackendMember
	Token  string
}

// DecodeSession извлекает {member, token} из RTN_DATA. Поле member может прийти
// как объект или как JSON-строка, требующая повторного декодирования.
func DecodeSession(env Envelope) (SessionPayload, error) {
	var data sessionData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return SessionPayload{}, malformed(fmt.Errorf("decode session data: %w", err))
	}

	memberRaw := bytes.TrimSpace(data.Member)
	if len(memberRaw) == 0 || bytes.Equal(memberRaw, []byte("null")) {
		return SessionPayload{}, malformed(errors.New("session data has no member"))
	}

	if memberRaw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(memberRaw, &encoded); err != nil {
			return SessionPayload{}, malformed(fmt.Errorf("decode member string: %w", err))
		}
		memberRaw = []byte(encoded)
	}

	var member BackendMember
	if err := json.Unmarshal(memberRaw, &member); err != nil {
		return SessionPayload{}, malformed(fmt.Errorf("decode member: %w", err))
	}
	if member.Phone == "" {
		return SessionPayload{}, malformed(errors.New("member has no CUSTOMER_TEL"))
	}

	return SessionPayload{Member: member, Token: data.Token}, nil
}

// Encode собирает ответ RTN; используется тестовым бэкендом.
func Encode(code Status, header string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal RTN_DATA: %w", err)
	}
	return json.Marshal([]Envelope{{Code: code, Header: header, Data: payload}})
}
