package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"coup/bot"
	"coup/domain"
	"coup/engine"
)

const (
	defaultBotDelay      = 1500 * time.Millisecond
	defaultWindowTimeout = 15 * time.Second
	defaultChoiceTimeout = 30 * time.Second
	defaultTurnTimeout   = 45 * time.Second
)

type roomDescription struct {
	id           string
	private      bool
	playersCount int
	maxPlayers   int
	started      bool
}

type roomJoinRequest struct {
	roomId  string
	player  Player
	errChan chan error
}

func NewRoomJoinRequest(roomId string, player Player) roomJoinRequest {
	return roomJoinRequest{roomId: roomId, player: player, errChan: make(chan error, 1)}
}

type dataSendTask struct {
	to   Player
	data []byte
}

// room is one Coup table. All state below is owned by the GameLoop
// goroutine; the exported methods only push onto the channels.
type room struct {
	id         string
	private    bool
	hostId     string
	maxPlayers int

	lobby       Lobby
	resultSaver ResultSaver
	logger      zerolog.Logger

	// players is the live seat list. Once the game starts, seats freezes
	// the deal order: seats[i] plays engine seat "player-i" for the whole
	// game, even if the human behind it disconnects.
	players   []Player
	seats     []Player
	ready     map[string]bool
	started   bool
	botsAdded int

	eng    *engine.Engine
	state  *engine.State
	policy *bot.Policy

	// Response-window bookkeeping. declined collects the engine ids that
	// waived the open window; the engine sees a single pass once everyone
	// has.
	declined       map[string]bool
	windowDeadline time.Time
	botActAt       time.Time

	botDelay      time.Duration
	windowTimeout time.Duration
	choiceTimeout time.Duration
	turnTimeout   time.Duration

	sendTasks []dataSendTask

	inbox                 chan ClientPacketEnvelope
	ticks                 chan time.Time
	pingRequests          chan struct{}
	playerRemovalRequests chan Player
	joinRequests          chan roomJoinRequest
	closeChan             chan struct{}
}

func NewRoom(host Player, private bool, maxPlayers int, rng *rand.Rand, saver ResultSaver, logger zerolog.Logger) *room {
	if maxPlayers < 2 || maxPlayers > 6 {
		maxPlayers = 6
	}
	r := &room{
		private:     private,
		hostId:      host.Id(),
		maxPlayers:  maxPlayers,
		resultSaver: saver,
		logger:      logger,
		players:     []Player{host},
		ready:       map[string]bool{},
		eng:         engine.New(rng),
		policy:      bot.New(rng),
		declined:    map[string]bool{},

		botDelay:      defaultBotDelay,
		windowTimeout: defaultWindowTimeout,
		choiceTimeout: defaultChoiceTimeout,
		turnTimeout:   defaultTurnTimeout,

		inbox:                 make(chan ClientPacketEnvelope, 1024),
		ticks:                 make(chan time.Time, 24),
		pingRequests:          make(chan struct{}, 4),
		playerRemovalRequests: make(chan Player, 64),
		joinRequests:          make(chan roomJoinRequest, 16),
		closeChan:             make(chan struct{}),
	}
	host.SetRoom(r)
	return r
}

func (r *room) SetId(id string)        { r.id = id }
func (r *room) SetParentLobby(l Lobby) { r.lobby = l }

func (r *room) Description() roomDescription {
	return roomDescription{
		id:           r.id,
		private:      r.private,
		playersCount: len(r.players),
		maxPlayers:   r.maxPlayers,
		started:      r.started,
	}
}

func (r *room) Send(ctx context.Context, e ClientPacketEnvelope) {
	select {
	case r.inbox <- e:
	case <-ctx.Done():
	}
}

func (r *room) RequestJoin(jreq roomJoinRequest) {
	select {
	case r.joinRequests <- jreq:
	default:
		jreq.errChan <- ErrRoomFull
	}
}

func (r *room) RemoveMe(ctx context.Context, p Player) {
	select {
	case r.playerRemovalRequests <- p:
	case <-ctx.Done():
	}
}

func (r *room) Tick(now time.Time) {
	select {
	case r.ticks <- now:
	default:
	}
}

func (r *room) PingPlayers() {
	select {
	case r.pingRequests <- struct{}{}:
	default:
	}
}

func (r *room) CloseAndRelease() {
	close(r.closeChan)
}

// GameLoop is the room actor. It is the only goroutine allowed to touch
// the game state.
func (r *room) GameLoop() {
	for _, p := range r.players {
		r.queueSend(p, r.snapshotPacket())
	}
	r.flushSends()

	for {
		select {
		case e := <-r.inbox:
			r.handleEnvelope(e)
		case now := <-r.ticks:
			r.handleTick(now)
		case <-r.pingRequests:
			for _, p := range r.players {
				p.Ping()
			}
		case p := <-r.playerRemovalRequests:
			r.handleRemovePlayer(p)
		case jreq := <-r.joinRequests:
			r.handleJoinRequest(jreq)
		case <-r.closeChan:
			for _, p := range r.players {
				p.CancelAndRelease()
			}
			return
		}
		r.flushSends()
	}
}

// --- outbound ---

func (r *room) queueSend(to Player, packet *serverPacket) {
	r.sendTasks = append(r.sendTasks, dataSendTask{to: to, data: marshalServerPacket(packet)})
}

func (r *room) broadcast(packet *serverPacket) {
	for _, p := range r.players {
		r.queueSend(p, packet)
	}
}

// broadcastState fans out one redacted view per seat.
func (r *room) broadcastState() {
	for i, seat := range r.seats {
		if seat == nil || seat.IsBot() {
			continue
		}
		r.queueSend(seat, &serverPacket{Type: PacketState, State: viewFor(r.state, engineId(i))})
	}
}

func (r *room) flushSends() {
	for _, task := range r.sendTasks {
		if err := task.to.Send(task.data); err != nil {
			r.logger.Warn().Str("room", r.id).Str("player", task.to.Id()).Err(err).Msg("dropping outbound packet")
		}
	}
	r.sendTasks = nil
}

func (r *room) sendError(to Player, err error) {
	r.queueSend(to, &serverPacket{Type: PacketError, Code: err.Error()})
}

// --- seat mapping ---

func engineId(seatIndex int) string {
	return fmt.Sprintf("player-%d", seatIndex)
}

func (r *room) seatIndexOf(p Player) int {
	for i, seat := range r.seats {
		if seat != nil && seat.Id() == p.Id() {
			return i
		}
	}
	return -1
}

func (r *room) seatByEngineId(id string) Player {
	for i, seat := range r.seats {
		if seat != nil && engineId(i) == id {
			return seat
		}
	}
	return nil
}

// --- membership ---

func (r *room) handleJoinRequest(jreq roomJoinRequest) {
	if r.started {
		jreq.errChan <- ErrGameStarted
		close(jreq.errChan)
		return
	}
	if len(r.players) >= r.maxPlayers {
		jreq.errChan <- ErrRoomFull
		close(jreq.errChan)
		return
	}

	r.broadcast(&serverPacket{Type: PacketPlayerJoined, Username: jreq.player.Username()})
	r.players = append(r.players, jreq.player)
	jreq.player.SetRoom(r)
	jreq.errChan <- nil
	close(jreq.errChan)

	r.queueSend(jreq.player, r.snapshotPacket())
	r.lobby.RequestUpdateDescription(r.Description())
}

func (r *room) snapshotPacket() *serverPacket {
	seats := make([]seatView, 0, len(r.players))
	for _, p := range r.players {
		seats = append(seats, seatView{
			Id:       p.Id(),
			Username: p.Username(),
			IsBot:    p.IsBot(),
			Ready:    p.IsBot() || p.Id() == r.hostId || r.ready[p.Id()],
		})
	}
	return &serverPacket{
		Type:    PacketRoomSnapshot,
		RoomID:  r.id,
		HostID:  r.hostId,
		Seats:   seats,
		Started: r.started,
	}
}

func (r *room) handleRemovePlayer(p Player) {
	idx := -1
	for i, existing := range r.players {
		if existing.Id() == p.Id() {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	delete(r.ready, p.Id())
	p.CancelAndRelease()
	r.broadcast(&serverPacket{Type: PacketPlayerLeft, Username: p.Username()})

	if r.started && r.state.Phase != engine.PhaseGameOver {
		if seat := r.seatIndexOf(p); seat >= 0 {
			if err := r.eng.Forfeit(r.state, engineId(seat)); err == nil {
				r.afterIntent(time.Now())
			}
			r.seats[seat] = nil
		}
	}

	if r.hostId == p.Id() && len(r.players) > 0 {
		r.hostId = r.players[0].Id()
	}

	if r.humanCount() == 0 {
		r.lobby.RemoveRoom(r.id)
		return
	}
	r.lobby.RequestUpdateDescription(r.Description())
}

func (r *room) humanCount() int {
	n := 0
	for _, p := range r.players {
		if !p.IsBot() {
			n++
		}
	}
	return n
}

// --- inbound packets ---

func (r *room) handleEnvelope(e ClientPacketEnvelope) {
	switch e.packet.Type {
	case PacketAddBot:
		r.handleAddBot(e.from)
	case PacketReady:
		r.handleReady(e.from, e.packet.Ready)
	case PacketStartGame:
		r.handleStartGame(e.from)
	case PacketChat:
		r.handleChat(e.from, e.packet.Message)
	case PacketAction, PacketChallenge, PacketBlock, PacketPass, PacketReveal, PacketExchangeKeep:
		r.handleIntent(e)
	}
}

func (r *room) handleAddBot(from Player) {
	if from.Id() != r.hostId || r.started {
		return
	}
	if len(r.players) >= r.maxPlayers {
		r.sendError(from, ErrRoomFull)
		return
	}
	r.botsAdded++
	b := newBotPlayer(fmt.Sprintf("bot-%s-%d", r.id, r.botsAdded), fmt.Sprintf("Bot %d", r.botsAdded))
	r.broadcast(&serverPacket{Type: PacketPlayerJoined, Username: b.Username()})
	r.players = append(r.players, b)
	r.lobby.RequestUpdateDescription(r.Description())
}

func (r *room) handleReady(from Player, ready bool) {
	if r.started {
		return
	}
	r.ready[from.Id()] = ready
	r.broadcast(&serverPacket{Type: PacketPlayerReady, Username: from.Username(), Ready: ready})
}

// allReady: bots are always ready, the host signals readiness by starting.
func (r *room) allReady() bool {
	for _, p := range r.players {
		if p.IsBot() || p.Id() == r.hostId {
			continue
		}
		if !r.ready[p.Id()] {
			return false
		}
	}
	return true
}

func (r *room) handleStartGame(from Player) {
	if from.Id() != r.hostId || r.started {
		return
	}
	if !r.allReady() {
		r.sendError(from, ErrPlayersNotReady)
		return
	}
	names := make([]string, 0, len(r.players))
	for _, p := range r.players {
		names = append(names, p.Username())
	}

	state, err := r.eng.StartGame(names)
	if err != nil {
		r.sendError(from, err)
		return
	}
	r.state = state
	r.seats = append([]Player(nil), r.players...)
	r.started = true

	r.broadcast(&serverPacket{Type: PacketGameStarted})
	r.afterIntent(time.Now())
	r.lobby.RequestUpdateDescription(r.Description())
}

func (r *room) handleChat(from Player, message string) {
	if message == "" {
		return
	}
	packet := &serverPacket{Type: PacketChat, From: from.Username(), Message: message}
	for _, p := range r.players {
		if p.Id() != from.Id() {
			r.queueSend(p, packet)
		}
	}
}

func (r *room) handleIntent(e ClientPacketEnvelope) {
	if !r.started || r.state.Phase == engine.PhaseGameOver {
		r.sendError(e.from, engine.ErrIllegalIntent)
		return
	}
	seat := r.seatIndexOf(e.from)
	if seat == -1 {
		r.sendError(e.from, engine.ErrIllegalIntent)
		return
	}
	id := engineId(seat)

	var err error
	switch e.packet.Type {
	case PacketAction:
		err = r.eng.SubmitAction(r.state, id, e.packet.Action, e.packet.TargetID, e.packet.Claim)
	case PacketChallenge:
		err = r.eng.SubmitChallenge(r.state, id)
	case PacketBlock:
		err = r.eng.SubmitBlock(r.state, id, e.packet.Claim)
	case PacketPass:
		r.handlePassVote(id, e.from)
		return
	case PacketReveal:
		err = r.eng.SubmitInfluenceChoice(r.state, id, e.packet.CardIndex)
	case PacketExchangeKeep:
		err = r.eng.SubmitExchangeKeep(r.state, id, e.packet.Kept)
	}

	if err != nil {
		r.sendError(e.from, err)
		return
	}
	r.afterIntent(time.Now())
}

// handlePassVote records one responder's decline. The engine only sees a
// pass once every responder in the window has declined.
func (r *room) handlePassVote(id string, from Player) {
	eligible := false
	for _, resp := range r.state.Responders() {
		if resp.ID == id {
			eligible = true
			break
		}
	}
	if !eligible {
		r.sendError(from, engine.ErrIllegalIntent)
		return
	}
	r.declined[id] = true
	r.checkWindowResolution(time.Now())
}

func (r *room) checkWindowResolution(now time.Time) {
	responders := r.state.Responders()
	if len(responders) == 0 {
		return
	}
	for _, resp := range responders {
		if !r.declined[resp.ID] {
			return
		}
	}
	if err := r.eng.SubmitPass(r.state, responders[0].ID); err != nil {
		r.logger.Error().Str("room", r.id).Err(err).Msg("aggregated pass rejected")
		return
	}
	r.afterIntent(now)
}

// afterIntent runs after every accepted state mutation: fan out views,
// reset the window bookkeeping and schedule whoever moves next.
func (r *room) afterIntent(now time.Time) {
	r.declined = map[string]bool{}
	r.broadcastState()

	if r.state.Phase == engine.PhaseGameOver {
		r.finishGame()
		return
	}
	r.schedule(now)
}

func (r *room) schedule(now time.Time) {
	r.windowDeadline = time.Time{}
	r.botActAt = time.Time{}

	switch r.state.Phase {
	case engine.PhaseAction:
		r.windowDeadline = now.Add(r.turnTimeout)
	case engine.PhaseChallenge, engine.PhaseBlock, engine.PhaseBlockChallenge:
		r.windowDeadline = now.Add(r.windowTimeout)
	case engine.PhaseLoseInfluence, engine.PhaseExchange:
		r.windowDeadline = now.Add(r.choiceTimeout)
	}

	if r.botHasDecision() {
		r.botActAt = now.Add(r.botDelay)
	}
}

func (r *room) botHasDecision() bool {
	if id, ok := r.state.RevealOwedBy(); ok {
		seat := r.seatByEngineId(id)
		return seat != nil && seat.IsBot()
	}
	switch r.state.Phase {
	case engine.PhaseAction:
		seat := r.seatByEngineId(r.state.CurrentPlayer().ID)
		return seat != nil && seat.IsBot()
	case engine.PhaseExchange:
		seat := r.seatByEngineId(r.state.PendingAction.ActorID)
		return seat != nil && seat.IsBot()
	case engine.PhaseChallenge, engine.PhaseBlock, engine.PhaseBlockChallenge:
		for _, resp := range r.state.Responders() {
			seat := r.seatByEngineId(resp.ID)
			if seat != nil && seat.IsBot() && !r.declined[resp.ID] {
				return true
			}
		}
	}
	return false
}

// --- ticks ---

func (r *room) handleTick(now time.Time) {
	if !r.started || r.state == nil || r.state.Phase == engine.PhaseGameOver {
		return
	}
	if !r.botActAt.IsZero() && !now.Before(r.botActAt) {
		r.botActAt = time.Time{}
		r.runBotDecision(now)
		return
	}
	if !r.windowDeadline.IsZero() && now.After(r.windowDeadline) {
		r.windowDeadline = time.Time{}
		r.forceResolution(now)
	}
}

// runBotDecision makes at most one bot move so a table of bots still
// plays out move by move.
func (r *room) runBotDecision(now time.Time) {
	s := r.state

	if id, ok := s.RevealOwedBy(); ok {
		seat := r.seatByEngineId(id)
		if seat == nil || !seat.IsBot() {
			return
		}
		p := s.FindPlayer(id)
		if err := r.eng.SubmitInfluenceChoice(s, id, r.policy.ChooseInfluenceToReveal(p)); err == nil {
			r.afterIntent(now)
		}
		return
	}

	switch s.Phase {
	case engine.PhaseAction:
		current := s.CurrentPlayer()
		seat := r.seatByEngineId(current.ID)
		if seat == nil || !seat.IsBot() {
			return
		}
		d := r.policy.DecideTurnAction(s, current)
		if err := r.eng.SubmitAction(s, current.ID, d.Action, d.TargetID, d.Claim); err != nil {
			r.logger.Error().Str("room", r.id).Str("action", string(d.Action)).Err(err).Msg("bot action rejected")
			return
		}
		r.afterIntent(now)

	case engine.PhaseExchange:
		actorId := s.PendingAction.ActorID
		seat := r.seatByEngineId(actorId)
		if seat == nil || !seat.IsBot() {
			return
		}
		actor := s.FindPlayer(actorId)
		kept := r.policy.ChooseExchangeKeep(r.exchangePool(actor), actor.Influence())
		if err := r.eng.SubmitExchangeKeep(s, actorId, kept); err == nil {
			r.afterIntent(now)
		}

	case engine.PhaseChallenge, engine.PhaseBlock, engine.PhaseBlockChallenge:
		r.runBotResponses(now)
	}
}

// exchangePool is the full choice set the exchanging player picks from.
func (r *room) exchangePool(actor *engine.Player) []engine.Character {
	pool := []engine.Character{}
	for _, c := range actor.Cards {
		if !c.Revealed {
			pool = append(pool, c.Character)
		}
	}
	return append(pool, r.state.ExchangeOptions...)
}

func (r *room) runBotResponses(now time.Time) {
	s := r.state
	for _, resp := range s.Responders() {
		seat := r.seatByEngineId(resp.ID)
		if seat == nil || !seat.IsBot() || r.declined[resp.ID] {
			continue
		}

		switch s.Phase {
		case engine.PhaseChallenge, engine.PhaseBlockChallenge:
			if r.policy.DecideChallenge(s, resp) {
				if err := r.eng.SubmitChallenge(s, resp.ID); err == nil {
					r.afterIntent(now)
					return
				}
			}
		case engine.PhaseBlock:
			if d := r.policy.DecideBlock(s, resp); d.Block {
				if err := r.eng.SubmitBlock(s, resp.ID, d.Claim); err == nil {
					r.afterIntent(now)
					return
				}
			}
		}
		r.declined[resp.ID] = true
	}
	r.checkWindowResolution(now)
}

// forceResolution plays out an expired deadline on behalf of whoever is
// stalling, using the same policy the bots do.
func (r *room) forceResolution(now time.Time) {
	s := r.state

	if id, ok := s.RevealOwedBy(); ok {
		p := s.FindPlayer(id)
		if err := r.eng.SubmitInfluenceChoice(s, id, r.policy.ChooseInfluenceToReveal(p)); err == nil {
			r.afterIntent(now)
		}
		return
	}

	switch s.Phase {
	case engine.PhaseAction:
		current := s.CurrentPlayer()
		d := r.policy.DecideTurnAction(s, current)
		if err := r.eng.SubmitAction(s, current.ID, d.Action, d.TargetID, d.Claim); err == nil {
			r.afterIntent(now)
		}
	case engine.PhaseExchange:
		actor := s.FindPlayer(s.PendingAction.ActorID)
		kept := r.policy.ChooseExchangeKeep(r.exchangePool(actor), actor.Influence())
		if err := r.eng.SubmitExchangeKeep(s, actor.ID, kept); err == nil {
			r.afterIntent(now)
		}
	case engine.PhaseChallenge, engine.PhaseBlock, engine.PhaseBlockChallenge:
		responders := s.Responders()
		if len(responders) == 0 {
			return
		}
		if err := r.eng.SubmitPass(s, responders[0].ID); err == nil {
			r.afterIntent(now)
		}
	}
}

// --- game over ---

func (r *room) finishGame() {
	winner := r.state.Winner
	r.broadcast(&serverPacket{Type: PacketGameOver, WinnerID: winner.ID})
	r.windowDeadline = time.Time{}
	r.botActAt = time.Time{}

	if r.resultSaver == nil {
		return
	}
	results := make([]domain.GameResult, 0, len(r.seats))
	finishedAt := time.Now()
	for i, seat := range r.seats {
		if seat == nil || seat.IsBot() {
			continue
		}
		results = append(results, domain.GameResult{
			RoomId:     r.id,
			UserId:     seat.Id(),
			Username:   seat.Username(),
			Won:        engineId(i) == winner.ID,
			FinishedAt: finishedAt,
		})
	}

	logger := r.logger
	roomId := r.id
	saver := r.resultSaver
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, res := range results {
			if err := saver.SaveResult(ctx, res); err != nil {
				logger.Error().Str("room", roomId).Str("user", res.UserId).Err(err).Msg("failed to persist game result")
			}
		}
	}()
}
