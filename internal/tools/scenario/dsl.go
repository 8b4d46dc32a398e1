package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const matchTypeName = "match_scenario"

// Scenario is a named list of steps played against one match.
type Scenario struct {
	Name   string
	Format string
	Steps  []Step

	// pendingError is attached to the next appended step.
	pendingError string
}

// Step is one scripted call or assertion.
type Step struct {
	Kind string
	Args map[string]any
	// ExpectError names the error code the step must fail with.
	ExpectError string
}

// LoadScenarioFromFile runs a Lua script that must return a scenario built
// with Match.new.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	state := newLuaState()
	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	scenario, err := runChunk(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

// LoadScenarioFromString runs Lua source that must return a scenario.
func LoadScenarioFromString(name, source string) (*Scenario, error) {
	state := newLuaState()
	if err := lua.LoadString(state, source); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	scenario, err := runChunk(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = name
	}
	return scenario, nil
}

func newLuaState() *lua.State {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerLuaTypes(state)
	return state
}

func runChunk(state *lua.State) (*Scenario, error) {
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return a match scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned an invalid match scenario")
	}
	if scenario.pendingError != "" {
		return nil, fmt.Errorf("expect_error(%q) is not followed by a step", scenario.pendingError)
	}
	return scenario, nil
}

func registerLuaTypes(state *lua.State) {
	lua.NewMetaTable(state, matchTypeName)
	state.NewTable()
	lua.SetFunctions(state, matchMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.NewTable()
	lua.SetFunctions(state, matchConstructor, 0)
	state.SetGlobal("Match")
}

var matchConstructor = []lua.RegistryFunction{
	{Name: "new", Function: matchNew},
}

// matchNew builds a scenario: Match.new(name, format).
func matchNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	format := lua.CheckString(state, 2)
	state.PushUserData(&Scenario{Name: name, Format: format})
	lua.SetMetaTableNamed(state, matchTypeName)
	return 1
}

var matchMethods = []lua.RegistryFunction{
	{Name: "point", Function: matchPoint},
	{Name: "points", Function: matchPoints},
	{Name: "game", Function: matchGame},
	{Name: "set", Function: matchSet},
	{Name: "end_segment", Function: matchEndSegment},
	{Name: "undo", Function: matchUndo},
	{Name: "redo", Function: matchRedo},
	{Name: "lineup", Function: matchLineup},
	{Name: "substitute", Function: matchSubstitute},
	{Name: "expect_scoreboard", Function: matchExpectScoreboard},
	{Name: "expect_games", Function: matchExpectGames},
	{Name: "expect_sets", Function: matchExpectSets},
	{Name: "expect_status", Function: matchExpectStatus},
	{Name: "expect_winner", Function: matchExpectWinner},
	{Name: "expect_error", Function: matchExpectError},
}

func matchPoint(state *lua.State) int {
	scenario := checkScenario(state)
	side := lua.CheckInteger(state, 2)
	data := optionalTable(state, 3)
	data["winner"] = side
	appendStep(scenario, "point", data)
	return chain(state)
}

func matchPoints(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	winners, ok := tableToGo(state, 2).([]any)
	if !ok {
		lua.ArgumentError(state, 2, "list of point winners expected")
		return 0
	}
	appendStep(scenario, "points", map[string]any{"winners": winners})
	return chain(state)
}

func matchGame(state *lua.State) int {
	scenario := checkScenario(state)
	side := lua.CheckInteger(state, 2)
	appendStep(scenario, "game", map[string]any{"winner": side})
	return chain(state)
}

func matchSet(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "set", tableToMap(state, 2))
	return chain(state)
}

func matchEndSegment(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "end_segment", nil)
	return chain(state)
}

func matchUndo(state *lua.State) int {
	scenario := checkScenario(state)
	count := lua.OptInteger(state, 2, 1)
	appendStep(scenario, "undo", map[string]any{"count": count})
	return chain(state)
}

func matchRedo(state *lua.State) int {
	scenario := checkScenario(state)
	count := lua.OptInteger(state, 2, 1)
	appendStep(scenario, "redo", map[string]any{"count": count})
	return chain(state)
}

func matchLineup(state *lua.State) int {
	scenario := checkScenario(state)
	side := lua.CheckInteger(state, 2)
	lua.CheckType(state, 3, lua.TypeTable)
	ids, _ := tableToGo(state, 3).([]any)
	appendStep(scenario, "lineup", map[string]any{"side": side, "participants": ids})
	return chain(state)
}

func matchSubstitute(state *lua.State) int {
	scenario := checkScenario(state)
	side := lua.CheckInteger(state, 2)
	out := lua.CheckString(state, 3)
	in := lua.CheckString(state, 4)
	appendStep(scenario, "substitute", map[string]any{"side": side, "out": out, "in": in})
	return chain(state)
}

func matchExpectScoreboard(state *lua.State) int {
	scenario := checkScenario(state)
	expected := lua.CheckString(state, 2)
	perspective := lua.OptInteger(state, 3, 1)
	appendStep(scenario, "expect_scoreboard", map[string]any{"scoreboard": expected, "perspective": perspective})
	return chain(state)
}

func matchExpectGames(state *lua.State) int {
	scenario := checkScenario(state)
	side1 := lua.CheckInteger(state, 2)
	side2 := lua.CheckInteger(state, 3)
	appendStep(scenario, "expect_games", map[string]any{"side1": side1, "side2": side2})
	return chain(state)
}

func matchExpectSets(state *lua.State) int {
	scenario := checkScenario(state)
	side1 := lua.CheckInteger(state, 2)
	side2 := lua.CheckInteger(state, 3)
	appendStep(scenario, "expect_sets", map[string]any{"side1": side1, "side2": side2})
	return chain(state)
}

func matchExpectStatus(state *lua.State) int {
	scenario := checkScenario(state)
	status := lua.CheckString(state, 2)
	appendStep(scenario, "expect_status", map[string]any{"status": status})
	return chain(state)
}

func matchExpectWinner(state *lua.State) int {
	scenario := checkScenario(state)
	side := lua.CheckInteger(state, 2)
	appendStep(scenario, "expect_winner", map[string]any{"side": side})
	return chain(state)
}

func matchExpectError(state *lua.State) int {
	scenario := checkScenario(state)
	code := strings.TrimSpace(lua.CheckString(state, 2))
	if code == "" {
		lua.ArgumentError(state, 2, "error code expected")
		return 0
	}
	scenario.pendingError = strings.ToUpper(code)
	return chain(state)
}

// chain returns the receiver so steps can be written as scene:point(0):point(1).
func chain(state *lua.State) int {
	state.PushValue(1)
	return 1
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, matchTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "match scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) int {
	if scenario == nil {
		return -1
	}
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data, ExpectError: scenario.pendingError})
	scenario.pendingError = ""
	return len(scenario.Steps) - 1
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

func tableToGo(state *lua.State, index int) any {
	if state.TypeOf(index) != lua.TypeTable {
		return nil
	}

	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}

	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
