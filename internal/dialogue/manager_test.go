package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"eino_dialogue/internal/core"
	"eino_dialogue/internal/memory"
	"eino_dialogue/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func snapshot(t testing.TB, s *Session) memory.Snapshot {
	t.Helper()
	var snap memory.Snapshot
	require.NoError(t, s.WithMemory(func(mem *memory.ConversationMemory) error {
		snap = mem.Snapshot()
		return nil
	}))
	return snap
}

func TestDirectBookingThenYes(t *testing.T) {
	f := newFixture()
	s := f.session(t)

	reply := say(t, s, "Book an appointment for tomorrow at 3pm")
	assert.Equal(t, "Scheduled on tomorrow at 3pm. Confirm?", reply)

	snap := snapshot(t, s)
	require.NotNil(t, snap.Pending)
	assert.Equal(t, "confirmation", snap.Pending.Kind)
	assert.Equal(t, &pkg.Appointment{Date: "tomorrow", Time: "3pm"}, snap.Pending.Appointment)

	reply = say(t, s, "yes")
	assert.Contains(t, reply, "confirmed")
	assert.Contains(t, reply, "evt_1")

	snap = snapshot(t, s)
	assert.Nil(t, snap.Pending)
	assert.Equal(t, []pkg.Appointment{{Date: "tomorrow", Time: "3pm"}}, snap.Appointments)
	assert.Equal(t, []pkg.Appointment{{Date: "tomorrow", Time: "3pm"}}, f.calendar.Events())
	assert.Equal(t, pkg.IntentYes, snap.CurrentContext)
}

func TestOrderNotFound(t *testing.T) {
	s := newFixture().session(t)

	reply := say(t, s, "Where is my order #99999")
	assert.Equal(t, "I couldn't find that order. Can you double-check the number?", reply)

	snap := snapshot(t, s)
	assert.Nil(t, snap.Pending)
	assert.Empty(t, snap.Appointments)
	assert.Equal(t, pkg.IntentOrderStatus, snap.CurrentContext)
}

func TestOrderFoundAfterStickyFollowUp(t *testing.T) {
	s := newFixture().session(t)

	assert.Equal(t, "Could you give me your order number?", say(t, s, "I want to track my order"))
	assert.Equal(t, "Order #12345 is shipped. Expected on April 15, 2025.", say(t, s, "12345"))
}

func TestImplausibleFlowStillResponds(t *testing.T) {
	s := newFixture().session(t)

	say(t, s, "hello")
	reply := say(t, s, "how much is a laptop")
	assert.Equal(t, TransitionPhrase(pkg.IntentPricing)+"The price for laptop is $1200. Want more info?", reply)
}

func TestPlausibleFlowHasNoPrefix(t *testing.T) {
	s := newFixture().session(t)

	say(t, s, "Do you sell laptops?")
	assert.Equal(t, "The price for tablet is $500. Want more info?", say(t, s, "what does a tablet cost"))
}

func TestSlotFillDateThenTime(t *testing.T) {
	s := newFixture().session(t)

	assert.Equal(t, "What date would you like to schedule it for?", say(t, s, "I'd like to book an appointment"))
	snap := snapshot(t, s)
	require.NotNil(t, snap.Pending)
	assert.Equal(t, "slot_fill", snap.Pending.Kind)
	assert.Equal(t, []pkg.EntityKey{pkg.EntityDate, pkg.EntityTime}, snap.Pending.Required)

	assert.Equal(t, "What time works for you on tomorrow?", say(t, s, "tomorrow"))
	snap = snapshot(t, s)
	assert.Equal(t, []pkg.EntityKey{pkg.EntityTime}, snap.Pending.Required)
	assert.Equal(t, map[pkg.EntityKey]string{pkg.EntityDate: "tomorrow"}, snap.Pending.Filled)

	assert.Equal(t, "Scheduled on tomorrow at 3pm. Confirm?", say(t, s, "3pm"))
	snap = snapshot(t, s)
	assert.Equal(t, "confirmation", snap.Pending.Kind)
	assert.Equal(t, &pkg.Appointment{Date: "tomorrow", Time: "3pm"}, snap.Pending.Appointment)
}

func TestSlotFillIgnoresIrrelevantInput(t *testing.T) {
	s := newFixture().session(t)

	say(t, s, "schedule a meeting on friday")
	assert.Equal(t, "What time works for you on friday?", say(t, s, "hmm, not sure"))

	snap := snapshot(t, s)
	assert.Equal(t, map[pkg.EntityKey]string{pkg.EntityDate: "friday"}, snap.Pending.Filled)
}

func TestSlotFillCancelledByNo(t *testing.T) {
	s := newFixture().session(t)

	say(t, s, "book an appointment")
	assert.Equal(t, "Okay, I've cancelled that request.", say(t, s, "no"))
	assert.Nil(t, snapshot(t, s).Pending)
}

func TestConflictForcesTimeReprompt(t *testing.T) {
	f := newFixture()
	s := f.session(t)

	say(t, s, "Book an appointment for tomorrow at 3pm")
	say(t, s, "yes")

	say(t, s, "I need another appointment")
	say(t, s, "tomorrow")
	reply := say(t, s, "3pm")
	assert.Equal(t, "You already have an appointment on tomorrow at 3pm. What other time works for you?", reply)

	snap := snapshot(t, s)
	require.NotNil(t, snap.Pending)
	assert.Equal(t, "slot_fill", snap.Pending.Kind)
	assert.Equal(t, []pkg.EntityKey{pkg.EntityTime}, snap.Pending.Required)
	assert.Equal(t, map[pkg.EntityKey]string{pkg.EntityDate: "tomorrow"}, snap.Pending.Filled)
	assert.Len(t, snap.Appointments, 1)

	assert.Equal(t, "Scheduled on tomorrow at 5pm. Confirm?", say(t, s, "5pm then"))
}

func TestDirectBookingConflict(t *testing.T) {
	s := newFixture().session(t)

	say(t, s, "Book an appointment for tomorrow at 3pm")
	say(t, s, "yes")

	reply := say(t, s, "Book an appointment for tomorrow at 3pm")
	assert.Contains(t, reply, "already have an appointment on tomorrow at 3pm")
	assert.Equal(t, "slot_fill", snapshot(t, s).Pending.Kind)
}

func TestConfirmationRepromptsOnOtherIntent(t *testing.T) {
	f := newFixture()
	s := f.session(t)

	say(t, s, "Book an appointment for tomorrow at 3pm")
	reply := say(t, s, "what's the weather in Paris?")
	assert.Equal(t, "Please answer yes or no: should I schedule it on tomorrow at 3pm?", reply)

	snap := snapshot(t, s)
	require.NotNil(t, snap.Pending)
	assert.Equal(t, "confirmation", snap.Pending.Kind)
	assert.Empty(t, f.weather.Calls())
	assert.Equal(t, pkg.IntentScheduling, snap.CurrentContext)
}

func TestConfirmationDeclined(t *testing.T) {
	f := newFixture()
	s := f.session(t)

	say(t, s, "Book an appointment for tomorrow at 3pm")
	assert.Equal(t, "Okay, I won't schedule it. Let me know if you need anything else.", say(t, s, "no"))

	snap := snapshot(t, s)
	assert.Nil(t, snap.Pending)
	assert.Empty(t, snap.Appointments)
	assert.Empty(t, f.calendar.Events())
}

func TestCalendarTimeoutIsReportedLikeFailure(t *testing.T) {
	f := newFixture()
	f.calendar.block = true
	f.config.ExternalTimeout = 10 * time.Millisecond
	s := f.session(t)

	say(t, s, "Book an appointment for tomorrow at 3pm")
	reply := say(t, s, "yes")
	assert.Equal(t, "Your appointment on tomorrow at 3pm is recorded, but I couldn't add it to your calendar.", reply)

	snap := snapshot(t, s)
	assert.Nil(t, snap.Pending)
	assert.Equal(t, []pkg.Appointment{{Date: "tomorrow", Time: "3pm"}}, snap.Appointments)
}

func TestSlotFillSupersededByNewRequest(t *testing.T) {
	f := newFixture()
	s := f.session(t)

	assert.Equal(t, "What time works for you on tomorrow?", say(t, s, "book an appointment tomorrow"))
	assert.Equal(t, "Scheduled on friday at 10am. Confirm?", say(t, s, "Book an appointment for friday at 10am"))

	say(t, s, "yes")
	assert.Equal(t, []pkg.Appointment{{Date: "friday", Time: "10am"}}, snapshot(t, s).Appointments)
	assert.Equal(t, []pkg.Appointment{{Date: "friday", Time: "10am"}}, f.calendar.Events())
}

func TestSlotFillSupersededKeepsUnrestatedValues(t *testing.T) {
	s := newFixture().session(t)

	say(t, s, "book an appointment tomorrow")
	assert.Equal(t, "What time works for you on monday?", say(t, s, "actually schedule it for monday"))

	snap := snapshot(t, s)
	require.NotNil(t, snap.Pending)
	assert.Equal(t, map[pkg.EntityKey]string{pkg.EntityDate: "monday"}, snap.Pending.Filled)
	assert.Equal(t, []pkg.EntityKey{pkg.EntityTime}, snap.Pending.Required)

	assert.Equal(t, "Scheduled on monday at 9am. Confirm?", say(t, s, "9am"))
}

func TestCalendarFailureIsReported(t *testing.T) {
	f := newFixture()
	f.calendar.err = &core.ServiceError{Service: "calendar", Op: "create_event", Err: core.ErrUnauthorized}
	s := f.session(t)

	say(t, s, "Book an appointment for tomorrow at 3pm")
	reply := say(t, s, "yes")
	assert.Equal(t, "Your appointment on tomorrow at 3pm is recorded, but I couldn't add it to your calendar.", reply)

	snap := snapshot(t, s)
	assert.Nil(t, snap.Pending)
	assert.Equal(t, []pkg.Appointment{{Date: "tomorrow", Time: "3pm"}}, snap.Appointments)
}

func TestWeather(t *testing.T) {
	t.Run("explicit location", func(t *testing.T) {
		f := newFixture()
		s := f.session(t)

		assert.Equal(t, "In Paris, it's 21°C with clear sky.", say(t, s, "What's the weather in Paris today?"))
		assert.Equal(t, []string{"Paris"}, f.weather.Calls())
		assert.Equal(t, "Paris", snapshot(t, s).LongTerm[memory.FactPreferredLocation])
	})

	t.Run("preferred location", func(t *testing.T) {
		f := newFixture()
		s := f.session(t)

		say(t, s, "What's the weather in Paris?")
		say(t, s, "thanks")
		say(t, s, "what's the weather like")
		assert.Equal(t, []string{"Paris", "Paris"}, f.weather.Calls())
	})

	t.Run("no location asks without calling the service", func(t *testing.T) {
		f := newFixture()
		s := f.session(t)

		assert.Equal(t, "Which city would you like the weather for?", say(t, s, "how is the weather"))
		assert.Empty(t, f.weather.Calls())
	})

	t.Run("service failure falls back to a simulated reading", func(t *testing.T) {
		f := newFixture()
		f.weather.err = errors.New("503")
		s := f.session(t)

		reply := say(t, s, "weather in Oslo")
		assert.Contains(t, reply, "In Oslo, it's 20°C with cloudy")
		assert.Contains(t, reply, "simulated")
	})

	t.Run("single word follow-up is a location", func(t *testing.T) {
		f := newFixture()
		s := f.session(t)

		say(t, s, "What's the weather in Paris?")
		assert.Equal(t, "In London, it's 21°C with clear sky.", say(t, s, "London"))
		assert.Equal(t, []string{"Paris", "London"}, f.weather.Calls())
		assert.Equal(t, pkg.IntentWeather, snapshot(t, s).CurrentContext)
	})

	t.Run("bare weather word is not a location", func(t *testing.T) {
		f := newFixture()
		s := f.session(t)

		assert.Equal(t, "Which city would you like the weather for?", say(t, s, "weather?"))
		assert.Empty(t, f.weather.Calls())
	})
}

func TestWeatherTimeoutUsesFallback(t *testing.T) {
	f := newFixture()
	f.weather.block = true
	f.config.ExternalTimeout = 20 * time.Millisecond
	s := f.session(t)

	start := time.Now()
	reply := say(t, s, "weather in Rome")
	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, reply, "simulated")
}

func TestUnknownWithoutStickyContext(t *testing.T) {
	s := newFixture().session(t)

	say(t, s, "hello")
	assert.Equal(t, "I'm not sure I understand. Could you rephrase that?", say(t, s, "Paris"))
}

func TestClassifierFailureDegradesToUnknown(t *testing.T) {
	f := newFixture()
	f.deps.Classifier = failingClassifier{}
	s := f.session(t)

	reply, err := s.ProcessTurn(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "I'm not sure I understand. Could you rephrase that?", reply)
	assert.Equal(t, pkg.IntentUnknown, snapshot(t, s).CurrentContext)
}

func TestPersonalization(t *testing.T) {
	f := newFixture()
	f.config.PersonalizationRate = 1
	s := f.session(t)

	first := say(t, s, "Hi, my name is Alice")
	assert.False(t, strings.HasPrefix(first, "Alice"), "name is not known before the turn ends")
	assert.Equal(t, "Alice", snapshot(t, s).LongTerm[memory.FactUserName])

	reply := say(t, s, "Do you sell tablets?")
	assert.Equal(t, "Alice, we have a range of electronics. Do you want details on something specific?", reply)

	// the reply already names the user, so only the topic change shows
	assert.Equal(t, TransitionPhrase(pkg.IntentGetUserInfo)+"Your name is Alice.", say(t, s, "what is my name"))
}

func TestNoPersonalizationAtZeroRate(t *testing.T) {
	s := newFixture().session(t)

	say(t, s, "my name is Bob")
	assert.Equal(t, "We have a range of books and electronics. Do you want details on something specific?", say(t, s, "what products do you have"))
}

func TestUserInfoWithoutName(t *testing.T) {
	s := newFixture().session(t)
	assert.Contains(t, say(t, s, "what's my name?"), "don't know your name")
}

func TestNewsAndHelp(t *testing.T) {
	s := newFixture().session(t)

	assert.Equal(t, "Top headlines:\n1. AI revolutionizes education.\n2. Tech giants invest in climate solutions.\n3. Breakthroughs in cancer research.",
		say(t, s, "any news?"))
	assert.Equal(t, TransitionPhrase(pkg.IntentHelp)+"I can assist with laptop. Could you elaborate?", say(t, s, "I need help with my laptop"))
}

func TestHistoryIsBounded(t *testing.T) {
	s := newFixture().session(t)

	inputs := []string{"hello", "any news?", "thanks", "bye", "hello", "help", "what's my name?"}
	for _, input := range inputs {
		say(t, s, input)
	}

	snap := snapshot(t, s)
	require.Len(t, snap.ShortTerm, memory.MaxShortTerm)
	assert.Equal(t, "thanks", snap.ShortTerm[0].Input)
	assert.Equal(t, "what's my name?", snap.ShortTerm[4].Input)
	assert.Equal(t, pkg.IntentGetUserInfo, snap.CurrentContext)
	for _, turn := range snap.ShortTerm {
		assert.Len(t, turn.Entities, len(pkg.EntityKeys))
		assert.NotEmpty(t, turn.Response)
	}
}

func TestRendererFailureIsReturned(t *testing.T) {
	f := newFixture()
	f.deps.Renderer = brokenRenderer{}
	s := f.session(t)

	_, err := s.ProcessTurn(context.Background(), "hello")
	assert.Error(t, err)
	assert.Empty(t, snapshot(t, s).ShortTerm)
}

func TestRendererFailureLeavesNoPending(t *testing.T) {
	f := newFixture()
	f.deps.Renderer = brokenRenderer{}
	s := f.session(t)

	_, err := s.ProcessTurn(context.Background(), "book an appointment")
	assert.ErrorContains(t, err, "template bug")

	snap := snapshot(t, s)
	assert.Nil(t, snap.Pending)
	assert.Empty(t, snap.ShortTerm)
	assert.Empty(t, snap.CurrentContext)
}

func TestRendererFailureKeepsEarlierState(t *testing.T) {
	f := newFixture()
	renderer := &switchableRenderer{}
	f.deps.Renderer = renderer
	s := f.session(t)

	say(t, s, "book an appointment tomorrow")
	before := snapshot(t, s)

	renderer.broken = true
	_, err := s.ProcessTurn(context.Background(), "3pm")
	require.Error(t, err)
	assert.Equal(t, before, snapshot(t, s))
}

func TestRestoredSessionContinuesPendingConfirmation(t *testing.T) {
	f := newFixture()
	s := f.session(t)
	say(t, s, "Book an appointment for friday at 10am")

	var data []byte
	require.NoError(t, s.WithMemory(func(mem *memory.ConversationMemory) error {
		var err error
		data, err = mem.Marshal()
		return err
	}))

	restored, err := memory.Unmarshal(data)
	require.NoError(t, err)

	manager, err := NewManager(context.Background(), f.deps, f.config)
	require.NoError(t, err)
	resumed := manager.NewSession("resumed", restored)

	assert.Contains(t, say(t, resumed, "yes"), "friday at 10am is confirmed")
}

func TestParallelSessionsAreIndependent(t *testing.T) {
	f := newFixture()
	manager, err := NewManager(context.Background(), f.deps, f.config)
	require.NoError(t, err)

	sessions := make([]*Session, 8)
	g, ctx := errgroup.WithContext(context.Background())
	for i := range sessions {
		sessions[i] = manager.NewSession(fmt.Sprintf("s%d", i), nil)
		s := sessions[i]
		hour := i + 1
		g.Go(func() error {
			if _, err := s.ProcessTurn(ctx, fmt.Sprintf("Book an appointment for tomorrow at %dpm", hour)); err != nil {
				return err
			}
			_, err := s.ProcessTurn(ctx, "yes")
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i, s := range sessions {
		snap := snapshot(t, s)
		assert.Equal(t, []pkg.Appointment{{Date: "tomorrow", Time: fmt.Sprintf("%dpm", i+1)}}, snap.Appointments)
		assert.Len(t, snap.ShortTerm, 2)
	}
	assert.Len(t, f.calendar.Events(), len(sessions))
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	deps := newFixture().deps

	_, err := NewManager(context.Background(), deps, core.DialogueConfig{})
	assert.ErrorContains(t, err, "external timeout must be positive")

	_, err = NewManager(context.Background(), deps, core.DialogueConfig{ExternalTimeout: time.Second, PersonalizationRate: 1.5})
	assert.ErrorContains(t, err, "personalization rate")
}

func TestNewManagerRequiresDependencies(t *testing.T) {
	_, err := NewManager(context.Background(), Dependencies{}, core.DialogueConfig{ExternalTimeout: time.Second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classifier is required")
	assert.Contains(t, err.Error(), "calendar service is required")
}
