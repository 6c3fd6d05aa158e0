package fsm

import (
	"fmt"
)

// State 定义交互会话的状态
type State string

// Event 定义用户触发的事件
type Event string

const (
	StateMainMenu     State = "MAIN_MENU"     // 主菜单
	StateSimulation   State = "SIMULATION"    // 新模拟窗口：录入数量、查看工序表、计算
	StateAddOperation State = "ADD_OPERATION" // 新增工序对话框
	StateExited       State = "EXITED"        // 会话结束
)

const (
	EventNewSimulation Event = "NEW_SIMULATION"
	EventAddOperation  Event = "ADD_OPERATION"
	EventConfirm       Event = "CONFIRM"
	EventCancel        Event = "CANCEL"
	EventBack          Event = "BACK"
	EventQuit          Event = "QUIT"
)

// FSM 有限状态机
// 事件在调用方的 goroutine 上同步分发，回调中不要再调用 Fire
type FSM struct {
	Current State
	// transitions 定义状态转移表: CurrentState -> Event -> NextState
	transitions map[State]map[Event]State
	// callbacks 定义进入状态后的回调: State -> func(from)
	callbacks map[State]func(from State)
}

// NewFSM 创建一个处于主菜单状态的会话状态机
func NewFSM() *FSM {
	fsm := &FSM{
		Current:     StateMainMenu,
		transitions: make(map[State]map[Event]State),
		callbacks:   make(map[State]func(State)),
	}
	fsm.initTransitions()
	return fsm
}

func (f *FSM) initTransitions() {
	f.addTransition(StateMainMenu, EventNewSimulation, StateSimulation)
	f.addTransition(StateMainMenu, EventQuit, StateExited)

	f.addTransition(StateSimulation, EventAddOperation, StateAddOperation)
	f.addTransition(StateSimulation, EventBack, StateMainMenu)
	f.addTransition(StateSimulation, EventQuit, StateExited)

	f.addTransition(StateAddOperation, EventConfirm, StateSimulation) // 确认后回到模拟窗口并刷新工序表
	f.addTransition(StateAddOperation, EventCancel, StateSimulation)
	f.addTransition(StateAddOperation, EventQuit, StateExited)
}

func (f *FSM) addTransition(from State, event Event, to State) {
	if _, ok := f.transitions[from]; !ok {
		f.transitions[from] = make(map[Event]State)
	}
	f.transitions[from][event] = to
}

// RegisterCallback 注册状态进入时的回调
func (f *FSM) RegisterCallback(state State, callback func(from State)) {
	f.callbacks[state] = callback
}

// Fire 触发事件
func (f *FSM) Fire(event Event) error {
	nextState, ok := f.transitions[f.Current][event]
	if !ok {
		return fmt.Errorf("invalid transition: cannot fire event %s from state %s", event, f.Current)
	}

	prevState := f.Current
	f.Current = nextState

	if cb, exists := f.callbacks[nextState]; exists {
		cb(prevState)
	}
	return nil
}
