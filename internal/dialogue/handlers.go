package dialogue

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"eino_dialogue/internal/core"
	"eino_dialogue/internal/logger"
	"eino_dialogue/internal/memory"
	"eino_dialogue/pkg"
)

// weatherWords are never taken as a bare single-word location
var weatherWords = map[string]bool{
	"weather": true, "forecast": true, "temperature": true, "rain": true, "raining": true,
	"sunny": true, "snow": true, "snowing": true,
}

// handle produces the response template and fields for a fresh-turn intent. It may set a new
// pending transaction on the session memory.
func (m *Manager) handle(ctx context.Context, s *Session, intent pkg.Intent, entities pkg.EntityMap) (string, map[string]any, error) {
	switch intent {
	case pkg.IntentGreeting:
		return pick(s, greetingTemplates), nil, nil
	case pkg.IntentFarewell:
		return pick(s, farewellTemplates), nil, nil
	case pkg.IntentThanks:
		return pick(s, thanksTemplates), nil, nil
	case pkg.IntentYes:
		return tplYes, nil, nil
	case pkg.IntentNo:
		return tplNo, nil, nil
	case pkg.IntentWeather:
		return m.handleWeather(ctx, s, entities)
	case pkg.IntentProductInfo:
		return m.handleProductInfo(entities)
	case pkg.IntentScheduling:
		return m.handleScheduling(s, entities)
	case pkg.IntentOrderStatus:
		return m.handleOrderStatus(entities)
	case pkg.IntentHelp:
		issue := tplDefaultHelpIssue
		if product, ok := entities.Get(pkg.EntityProduct); ok {
			issue = product
		}
		return tplHelp, map[string]any{"issue": issue}, nil
	case pkg.IntentPricing:
		return m.handlePricing(entities)
	case pkg.IntentGetUserInfo:
		return handleUserInfo(s, entities)
	case pkg.IntentNews:
		return m.handleNews(ctx)
	case pkg.IntentUnknown:
		return tplUnknown, nil, nil
	}
	return "", nil, &core.InvariantError{Invariant: "intent-handled", Detail: fmt.Sprintf("no handler for intent %q", intent)}
}

func pick(s *Session, templates []string) string {
	return templates[s.rng.IntN(len(templates))]
}

func (m *Manager) handleWeather(ctx context.Context, s *Session, entities pkg.EntityMap) (string, map[string]any, error) {
	location, ok := entities.Get(pkg.EntityLocation)
	if !ok {
		location, ok = s.mem.Fact(memory.FactPreferredLocation)
	}
	if !ok {
		return tplWeatherNoPlace, nil, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, m.config.ExternalTimeout)
	defer cancel()

	reading, err := m.deps.Weather.Fetch(callCtx, location)
	if err != nil {
		logger.Warn().Err(err).Str("session", s.id).Str("location", location).Msg("Weather lookup failed, using simulated reading")
		reading = simulatedWeather(location)
	}

	template := tplWeather
	if reading.Simulated {
		template = tplWeatherSimulated
	}
	return template, map[string]any{
		"location":   reading.Location,
		"temp":       strconv.FormatFloat(reading.Temperature, 'f', -1, 64),
		"conditions": reading.Conditions,
	}, nil
}

// simulatedWeather is the explicit fallback reading for an unavailable weather service
func simulatedWeather(location string) pkg.WeatherReading {
	return pkg.WeatherReading{Location: location, Temperature: 20, Conditions: "cloudy", Simulated: true}
}

func (m *Manager) handleProductInfo(entities pkg.EntityMap) (string, map[string]any, error) {
	productType := strings.Join(m.deps.Catalog.Categories(), " and ")
	if name, ok := entities.Get(pkg.EntityProduct); ok {
		if product, found := m.deps.Catalog.Find(name); found {
			productType = product.Category
		}
	}
	return tplProductInfo, map[string]any{"product_type": productType}, nil
}

func (m *Manager) handleScheduling(s *Session, entities pkg.EntityMap) (string, map[string]any, error) {
	var required []pkg.EntityKey
	filled := map[pkg.EntityKey]string{}
	for _, key := range []pkg.EntityKey{pkg.EntityDate, pkg.EntityTime} {
		if value, ok := entities.Get(key); ok {
			filled[key] = value
		} else {
			required = append(required, key)
		}
	}

	// with both slots present this goes straight to confirmation
	return m.advanceSlotFill(s.mem, memory.NewSlotFill(pkg.IntentScheduling, required, filled))
}

func (m *Manager) handleOrderStatus(entities pkg.EntityMap) (string, map[string]any, error) {
	number, ok := entities.Get(pkg.EntityOrderNumber)
	if !ok {
		return tplOrderNoNumber, nil, nil
	}
	order, found := m.deps.Orders.Lookup(number)
	if !found {
		return tplOrderNotFound, nil, nil
	}
	return tplOrderStatus, map[string]any{
		"order_number":  order.Number,
		"status":        order.Status,
		"delivery_date": order.DeliveryDate,
	}, nil
}

func (m *Manager) handlePricing(entities pkg.EntityMap) (string, map[string]any, error) {
	name, _ := entities.Get(pkg.EntityProduct)
	product, found := m.deps.Catalog.Find(name)
	if !found {
		return tplPricingClarify, map[string]any{"products": strings.Join(m.deps.Catalog.Names(), ", ")}, nil
	}
	return tplPricing, map[string]any{
		"product": product.Name,
		"price":   strconv.FormatFloat(product.Price, 'f', -1, 64),
	}, nil
}

func handleUserInfo(s *Session, entities pkg.EntityMap) (string, map[string]any, error) {
	name, ok := entities.Get(pkg.EntityPerson)
	if !ok {
		name, ok = s.mem.Fact(memory.FactUserName)
	}
	if !ok {
		return tplUserNameUnknown, nil, nil
	}
	return tplUserName, map[string]any{"name": name}, nil
}

func (m *Manager) handleNews(ctx context.Context) (string, map[string]any, error) {
	var lines []string
	for i, headline := range m.deps.News.Headlines(ctx) {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, headline))
	}
	return tplNews, map[string]any{"news_list": strings.Join(lines, "\n")}, nil
}
