package protocol

// Result is the typed form of a recognized inbound message.
type Result interface {
	Action() Action
}

// ListEntityResult answers a ListEntity request. Result holds the JSON
// array of entities exactly as delivered; the cursor fields are copied
// verbatim from params.
type ListEntityResult struct {
	EntityName   string
	Result       string
	Offset       int
	NextOffset   int
	TotalRecords int
	TotalFetched int
	HasMore      bool
	RequestID    string
}

func (ListEntityResult) Action() Action { return ActionListEntity }

// GetEntityResult answers a GetEntity request. The server keys the schema
// document by entity type name, so every JSON-document valued param is
// kept in Definitions.
type GetEntityResult struct {
	Definitions map[string]string
}

func (GetEntityResult) Action() Action { return ActionGetEntity }

// Definition returns the schema document for entity, if present.
func (r GetEntityResult) Definition(entity string) (string, bool) {
	d, ok := r.Definitions[entity]
	return d, ok
}

// Ack is the shared shape of add/update/remove acknowledgements.
type Ack struct {
	EntityName string
	PrimaryKey string
	Result     string
}

type AddEntityResult struct{ Ack }
type UpdateEntityResult struct{ Ack }
type RemoveEntityResult struct{ Ack }

func (AddEntityResult) Action() Action    { return ActionAddEntity }
func (UpdateEntityResult) Action() Action { return ActionUpdateEntity }
func (RemoveEntityResult) Action() Action { return ActionRemoveEntity }

// MenuResult answers GetWebAppMenu. Menu is the JSON document of the menu
// root; Present is false when the server sent no menu.
type MenuResult struct {
	Menu    string
	Present bool
}

func (MenuResult) Action() Action { return ActionGetWebAppMenu }

// Decode converts the message params into the Result variant of its action.
func (m Message) Decode() (Result, error) {
	switch m.Action {
	case ActionListEntity:
		return m.decodeList()
	case ActionGetEntity:
		return m.decodeGet()
	case ActionAddEntity:
		ack, err := m.decodeAck()
		return AddEntityResult{ack}, err
	case ActionUpdateEntity:
		ack, err := m.decodeAck()
		return UpdateEntityResult{ack}, err
	case ActionRemoveEntity:
		ack, err := m.decodeAck()
		return RemoveEntityResult{ack}, err
	case ActionGetWebAppMenu:
		return m.decodeMenu()
	default:
		return nil, &DecodeError{Action: m.Action, Field: "action", Err: ErrUnknownAction}
	}
}

func (m Message) decodeList() (ListEntityResult, error) {
	var r ListEntityResult
	var err error

	doc, ok, err := embeddedJSON(m.Params["result"])
	if err != nil {
		return r, m.fieldErr("result", err)
	}
	if !ok {
		return r, m.fieldErr("result", nil)
	}
	r.Result = doc

	if r.EntityName, err = looseString(m.Params["entityName"]); err != nil {
		return r, m.fieldErr("entityName", err)
	}
	if r.RequestID, err = looseString(m.Params["requestID"]); err != nil {
		return r, m.fieldErr("requestID", err)
	}
	if r.HasMore, err = looseBool(m.Params["hasMore"]); err != nil {
		return r, m.fieldErr("hasMore", err)
	}

	ints := []struct {
		field string
		dst   *int
	}{
		{"offset", &r.Offset},
		{"nextOffset", &r.NextOffset},
		{"totalRecords", &r.TotalRecords},
		{"totalFetched", &r.TotalFetched},
	}
	for _, f := range ints {
		if *f.dst, err = looseInt(m.Params[f.field]); err != nil {
			return r, m.fieldErr(f.field, err)
		}
	}
	return r, nil
}

func (m Message) decodeGet() (GetEntityResult, error) {
	r := GetEntityResult{Definitions: make(map[string]string)}
	for key, raw := range m.Params {
		if key == "entityName" || key == "primaryKey" {
			continue
		}
		doc, ok, err := embeddedJSON(raw)
		if err != nil || !ok {
			continue
		}
		r.Definitions[key] = doc
	}
	return r, nil
}

func (m Message) decodeAck() (Ack, error) {
	var a Ack
	var err error
	if a.EntityName, err = looseString(m.Params["entityName"]); err != nil {
		return a, m.fieldErr("entityName", err)
	}
	if a.PrimaryKey, err = looseString(m.Params["primaryKey"]); err != nil {
		return a, m.fieldErr("primaryKey", err)
	}
	if raw, ok := m.Params["result"]; ok && !isNull(raw) {
		if s, err := looseString(raw); err == nil {
			a.Result = s
		} else {
			a.Result = string(raw)
		}
	}
	return a, nil
}

func (m Message) decodeMenu() (MenuResult, error) {
	doc, ok, err := embeddedJSON(m.Params["menu"])
	if err != nil {
		return MenuResult{}, m.fieldErr("menu", err)
	}
	return MenuResult{Menu: doc, Present: ok}, nil
}

func (m Message) fieldErr(field string, err error) *DecodeError {
	return &DecodeError{Action: m.Action, Field: field, Err: err}
}
