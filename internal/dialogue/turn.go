package dialogue

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"

	"eino_dialogue/internal/core"
	"eino_dialogue/internal/logger"
	"eino_dialogue/internal/memory"
	"eino_dialogue/pkg"

	"github.com/cloudwego/eino/compose"
)

// Graph node keys, also reported as the resolution path of a turn
const (
	nodeRoute        = "route"
	nodeConfirmation = "confirmation"
	nodeSlotFill     = "slot_fill"
	nodeFresh        = "fresh"
	nodeRecord       = "record"
)

// contextSticky intents carry over to an unclassifiable follow-up
var contextSticky = map[pkg.Intent]bool{
	pkg.IntentWeather:     true,
	pkg.IntentScheduling:  true,
	pkg.IntentOrderStatus: true,
}

// turnState flows through the graph; every node mutates and returns the same value
type turnState struct {
	session *Session
	input   string

	pending  memory.Pending
	path     string
	intent   pkg.Intent
	entities pkg.EntityMap
	reply    string

	err error
}

// fail records err on the state so ProcessTurn can return it unwrapped
func (st *turnState) fail(err error) (*turnState, error) {
	st.err = err
	return st, err
}

// buildGraph wires route -> {confirmation | slot_fill | fresh} -> record
func (m *Manager) buildGraph(ctx context.Context) (compose.Runnable[*turnState, string], error) {
	graph := compose.NewGraph[*turnState, string]()

	nodes := []struct {
		key string
		fn  func(context.Context, *turnState) (*turnState, error)
	}{
		{nodeRoute, m.route},
		{nodeConfirmation, m.resolveConfirmation},
		{nodeSlotFill, m.resolveSlotFill},
		{nodeFresh, m.resolveFresh},
	}
	for _, node := range nodes {
		if err := graph.AddLambdaNode(node.key, compose.InvokableLambda(node.fn)); err != nil {
			return nil, fmt.Errorf("failed to add node %s: %w", node.key, err)
		}
	}
	if err := graph.AddLambdaNode(nodeRecord, compose.InvokableLambda(m.record)); err != nil {
		return nil, fmt.Errorf("failed to add node %s: %w", nodeRecord, err)
	}

	branch := compose.NewGraphBranch(func(ctx context.Context, st *turnState) (string, error) {
		return st.path, nil
	}, map[string]bool{nodeConfirmation: true, nodeSlotFill: true, nodeFresh: true})

	edges := [][2]string{
		{compose.START, nodeRoute},
		{nodeConfirmation, nodeRecord},
		{nodeSlotFill, nodeRecord},
		{nodeFresh, nodeRecord},
		{nodeRecord, compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("failed to add edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	if err := graph.AddBranch(nodeRoute, branch); err != nil {
		return nil, fmt.Errorf("failed to add branch: %w", err)
	}

	runnable, err := graph.Compile(ctx,
		compose.WithGraphName("dialogue_turn"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile dialogue graph: %w", err)
	}
	return runnable, nil
}

// route picks the resolution path from the outstanding transaction
func (m *Manager) route(ctx context.Context, st *turnState) (*turnState, error) {
	st.pending = st.session.mem.Pending()
	switch st.pending.(type) {
	case *memory.Confirmation:
		st.path = nodeConfirmation
	case *memory.SlotFill:
		st.path = nodeSlotFill
	case nil:
		st.path = nodeFresh
	default:
		return st.fail(&core.InvariantError{Invariant: "pending-kind", Detail: fmt.Sprintf("unexpected pending %T", st.pending)})
	}
	return st, nil
}

// resolveConfirmation handles a yes/no answer to an outstanding confirmation
func (m *Manager) resolveConfirmation(ctx context.Context, st *turnState) (*turnState, error) {
	s := st.session
	confirmation := st.pending.(*memory.Confirmation)
	appt := confirmation.Appointment
	fields := map[string]any{"date": appt.Date, "time": appt.Time}

	st.intent = m.classify(ctx, st.input)
	st.entities = m.deps.Extractor.Extract(st.input)

	var template string
	switch st.intent {
	case pkg.IntentYes:
		if err := s.mem.ConfirmAppointment(appt); err != nil {
			return st.fail(err)
		}
		s.mem.ClearPending()

		reference, err := m.createEvent(ctx, appt)
		if err != nil {
			logger.Warn().Err(err).Str("session", s.id).Str("date", appt.Date).Str("time", appt.Time).
				Msg("Appointment confirmed but calendar booking failed")
			template = tplCalendarFailed
			break
		}
		fields["reference"] = reference
		template = tplConfirmed

	case pkg.IntentNo:
		s.mem.ClearPending()
		template = tplConfirmDeclined

	default:
		// the question stays open until answered
		st.intent = confirmation.Owner()
		template = tplConfirmReprompt
	}

	return m.render(ctx, st, template, fields)
}

// resolveSlotFill merges newly extracted values into the outstanding slot fill. A fresh request
// for the owning intent supersedes it, so restated values replace the filled ones.
func (m *Manager) resolveSlotFill(ctx context.Context, st *turnState) (*turnState, error) {
	s := st.session
	slotFill := st.pending.(*memory.SlotFill)
	st.intent = slotFill.Owner()
	st.entities = m.deps.Extractor.Extract(st.input)
	classified := m.classify(ctx, st.input)

	if classified == slotFill.Owner() && mentionsSlot(slotFill, st.entities) {
		logger.Debug().Str("session", s.id).Str("intent", string(classified)).Msg("Slot fill superseded by a new request")
		slotFill = supersede(slotFill, st.entities)
	} else {
		filledAny := false
		for _, key := range slices.Clone(slotFill.Required) {
			if value, ok := st.entities.Get(key); ok && slotFill.Fill(key, value) {
				filledAny = true
			}
		}

		if !filledAny && classified == pkg.IntentNo {
			s.mem.ClearPending()
			st.intent = pkg.IntentNo
			return m.render(ctx, st, tplSlotFillDropped, nil)
		}
	}

	template, fields, err := m.advanceSlotFill(s.mem, slotFill)
	if err != nil {
		return st.fail(err)
	}
	return m.render(ctx, st, template, fields)
}

// slotKeys returns every slot of slotFill, filled or not
func slotKeys(slotFill *memory.SlotFill) []pkg.EntityKey {
	keys := slices.Clone(slotFill.Required)
	for key := range slotFill.Filled {
		keys = append(keys, key)
	}
	return keys
}

func mentionsSlot(slotFill *memory.SlotFill, entities pkg.EntityMap) bool {
	for _, key := range slotKeys(slotFill) {
		if _, ok := entities.Get(key); ok {
			return true
		}
	}
	return false
}

// supersede rebuilds slotFill with the values in entities laid over the filled ones
func supersede(slotFill *memory.SlotFill, entities pkg.EntityMap) *memory.SlotFill {
	filled := make(map[pkg.EntityKey]string, len(slotFill.Filled))
	maps.Copy(filled, slotFill.Filled)
	var required []pkg.EntityKey
	for _, key := range slotKeys(slotFill) {
		if value, ok := entities.Get(key); ok {
			filled[key] = value
		}
		if _, ok := filled[key]; !ok {
			required = append(required, key)
		}
	}
	return memory.NewSlotFill(slotFill.Owner(), required, filled)
}

// advanceSlotFill stores slotFill, or promotes it to a confirmation once complete. A complete
// appointment that is already booked loses its time slot and asks again.
func (m *Manager) advanceSlotFill(mem *memory.ConversationMemory, slotFill *memory.SlotFill) (string, map[string]any, error) {
	if slotFill.Complete() {
		appt := pkg.Appointment{Date: slotFill.Filled[pkg.EntityDate], Time: slotFill.Filled[pkg.EntityTime]}
		fields := map[string]any{"date": appt.Date, "time": appt.Time}

		if mem.Conflicts(appt) {
			slotFill.Unfill(pkg.EntityTime)
			if err := mem.SetPending(slotFill); err != nil {
				return "", nil, err
			}
			return tplScheduleConflict, fields, nil
		}

		if err := mem.SetPending(&memory.Confirmation{Intent: slotFill.Owner(), Appointment: appt}); err != nil {
			return "", nil, err
		}
		return tplScheduleConfirm, fields, nil
	}

	if err := mem.SetPending(slotFill); err != nil {
		return "", nil, err
	}
	next, _ := slotFill.Next()
	fields := map[string]any{}
	for key, value := range slotFill.Filled {
		fields[string(key)] = value
	}
	return slotPrompts[next], fields, nil
}

// resolveFresh classifies a new request and dispatches it to its handler
func (m *Manager) resolveFresh(ctx context.Context, st *turnState) (*turnState, error) {
	s := st.session
	previous := s.mem.CurrentContext()

	st.intent = m.classify(ctx, st.input)
	st.entities = m.deps.Extractor.Extract(st.input)

	if st.intent == pkg.IntentUnknown && contextSticky[previous] {
		logger.Debug().Str("session", s.id).Str("intent", string(previous)).Msg("Continuing previous topic")
		st.intent = previous
	}

	if st.intent == pkg.IntentWeather {
		if _, ok := st.entities.Get(pkg.EntityLocation); !ok {
			if token, ok := singleWord(st.input); ok && !weatherWords[strings.ToLower(token)] {
				st.entities = st.entities.With(pkg.EntityLocation, token)
			}
		}
	}

	template, fields, err := m.handle(ctx, s, st.intent, st.entities)
	if err != nil {
		return st.fail(err)
	}
	if _, err := m.render(ctx, st, template, fields); err != nil {
		return st, err
	}

	if st.intent != pkg.IntentUnknown && !IsPlausible(previous, st.intent) {
		st.reply = TransitionPhrase(st.intent) + st.reply
	}

	if name, ok := s.mem.Fact(memory.FactUserName); ok {
		st.reply = personalize(st.reply, name, m.config.PersonalizationRate, s.rng)
	}

	return st, nil
}

// record appends the turn to memory. Every path ends here.
func (m *Manager) record(ctx context.Context, st *turnState) (string, error) {
	mem := st.session.mem
	if st.entities == nil {
		st.entities = pkg.NewEntityMap()
	}

	mem.RecordTurn(pkg.Turn{
		Input:     st.input,
		Intent:    st.intent,
		Entities:  st.entities,
		Response:  st.reply,
		Timestamp: m.now(),
	})

	if location, ok := st.entities.Get(pkg.EntityLocation); ok {
		mem.Remember(memory.FactPreferredLocation, location)
	}
	if person, ok := st.entities.Get(pkg.EntityPerson); ok {
		mem.Remember(memory.FactUserName, person)
	}
	mem.SetCurrentContext(st.intent)

	return st.reply, nil
}

// classify degrades classifier failures to unknown
func (m *Manager) classify(ctx context.Context, text string) pkg.Intent {
	intent, err := m.deps.Classifier.Classify(ctx, text)
	if err != nil {
		logger.Warn().Err(err).Msg("Classification failed, treating as unknown")
		return pkg.IntentUnknown
	}
	if !intent.Valid() {
		return pkg.IntentUnknown
	}
	return intent
}

func (m *Manager) render(ctx context.Context, st *turnState, template string, fields map[string]any) (*turnState, error) {
	reply, err := m.deps.Renderer.Render(ctx, template, fields)
	if err != nil {
		return st.fail(err)
	}
	st.reply = reply
	return st, nil
}

// createEvent books the appointment within the external call timeout
func (m *Manager) createEvent(ctx context.Context, appt pkg.Appointment) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.config.ExternalTimeout)
	defer cancel()
	return m.deps.Calendar.CreateEvent(ctx, appt.Date, appt.Time, "Appointment")
}

// singleWord returns input as a location candidate when it is one alphabetic word
func singleWord(input string) (string, bool) {
	fields := strings.Fields(input)
	if len(fields) != 1 {
		return "", false
	}
	word := strings.TrimRight(fields[0], ".!?,")
	if word == "" {
		return "", false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return "", false
		}
	}
	return word, true
}
