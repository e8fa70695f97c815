package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"

	"tokenvest/config"
	"tokenvest/native/vesting"
)

type callerParams struct {
	Caller string `json:"caller"`
}

type setVestForParams struct {
	Caller    string   `json:"caller"`
	Direction string   `json:"direction"`
	Accounts  []string `json:"accounts"`
	Amounts   []string `json:"amounts"`
}

type rescueParams struct {
	Caller string `json:"caller"`
	Token  string `json:"token"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type accountParams struct {
	Account string `json:"account"`
}

type scheduleParams struct {
	Account   string `json:"account"`
	Direction string `json:"direction"`
}

type scheduleResult struct {
	CliffSeconds   uint64 `json:"cliffSeconds"`
	VestingSeconds uint64 `json:"vestingSeconds"`
	TotalAmount    string `json:"totalAmount"`
	ClaimedAmount  string `json:"claimedAmount"`
}

type vestingInfoResult struct {
	TotalAmount    string `json:"totalAmount"`
	UnlockedAmount string `json:"unlockedAmount"`
	ClaimedAmount  string `json:"claimedAmount"`
	LockedAmount   string `json:"lockedAmount"`
}

type claimResult struct {
	Claimed string `json:"claimed"`
}

func parseDirection(name string) (vesting.Direction, error) {
	for _, dir := range vesting.Directions() {
		if dir.String() == name {
			return dir, nil
		}
	}
	return 0, errors.New("unknown direction")
}

func decodeSingleParam(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return errors.New("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

// parseTokenAddress decodes the rescue token address without rejecting the
// zero value; the engine owns the zero-address guard for rescue calls.
func parseTokenAddress(s string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if len(trimmed) != 40 {
		return addr, errors.New("token address must be 20 bytes")
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, err
	}
	copy(addr[:], decoded)
	return addr, nil
}

// engineErrorStatus distinguishes authorization failures from ledger errors
// so RPC clients can react without string matching.
func engineErrorStatus(err error) (int, int) {
	if errors.Is(err, vesting.ErrAccessDenied) {
		return http.StatusForbidden, codeUnauthorized
	}
	return http.StatusOK, codeServerError
}

func (s *Server) writeEngineError(w http.ResponseWriter, req *RPCRequest, err error) {
	s.metrics.ObserveRPCError(req.Method)
	status, code := engineErrorStatus(err)
	writeError(w, status, req.ID, code, err.Error(), nil)
}

func (s *Server) publishCommittedTotal() {
	if total, err := s.engine.CommittedTotal(); err == nil {
		s.metrics.SetCommittedTotal(total)
	}
}

func (s *Server) handleVestingStart(w http.ResponseWriter, req *RPCRequest) {
	var params callerParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := config.ParseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	ts, err := s.engine.StartVesting(caller)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]int64{"startTimestamp": ts})
}

func (s *Server) handleSetVestFor(w http.ResponseWriter, req *RPCRequest) {
	var params setVestForParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := config.ParseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	dir, err := parseDirection(params.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid direction", err.Error())
		return
	}
	if len(params.Accounts) != len(params.Amounts) {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "accounts and amounts length mismatch", nil)
		return
	}
	accounts := make([][20]byte, len(params.Accounts))
	amounts := make([]*big.Int, len(params.Amounts))
	for i := range params.Accounts {
		account, err := config.ParseAddress(params.Accounts[i])
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
			return
		}
		amount, err := config.ParseAmount(params.Amounts[i])
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
			return
		}
		accounts[i] = account
		amounts[i] = amount
	}
	var setErr error
	switch dir {
	case vesting.DirectionPublicRound:
		setErr = s.engine.SetVestForPublicRound(caller, accounts, amounts)
	case vesting.DirectionStaking:
		setErr = s.engine.SetVestForStaking(caller, accounts, amounts)
	case vesting.DirectionTeam:
		setErr = s.engine.SetVestForTeam(caller, accounts, amounts)
	case vesting.DirectionLiquidity:
		setErr = s.engine.SetVestForLiquidity(caller, accounts, amounts)
	case vesting.DirectionMarketing:
		setErr = s.engine.SetVestForMarketing(caller, accounts, amounts)
	case vesting.DirectionTreasury:
		setErr = s.engine.SetVestForTreasury(caller, accounts, amounts)
	}
	if setErr != nil {
		s.writeEngineError(w, req, setErr)
		return
	}
	s.metrics.ObserveScheduleWrites(dir.String(), len(accounts))
	s.publishCommittedTotal()
	writeResult(w, req.ID, map[string]int{"written": len(accounts)})
}

func (s *Server) handleClaim(w http.ResponseWriter, req *RPCRequest) {
	var params callerParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := config.ParseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	claimed, err := s.engine.Claim(caller)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	s.metrics.ObserveClaim(claimed)
	s.publishCommittedTotal()
	writeResult(w, req.ID, claimResult{Claimed: claimed.String()})
}

func (s *Server) handleRescue(w http.ResponseWriter, req *RPCRequest) {
	var params rescueParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := config.ParseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	token, err := parseTokenAddress(params.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid token address", err.Error())
		return
	}
	to, err := config.ParseAddress(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
		return
	}
	amount, err := config.ParseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	if err := s.engine.Rescue(caller, token, to, amount); err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"rescued": true})
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, req *RPCRequest) {
	var params scheduleParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := config.ParseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return
	}
	dir, err := parseDirection(params.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid direction", err.Error())
		return
	}
	sched, err := s.engine.ScheduleOf(account, dir)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, scheduleResult{
		CliffSeconds:   sched.CliffSeconds,
		VestingSeconds: sched.VestingSeconds,
		TotalAmount:    sched.TotalAmount.String(),
		ClaimedAmount:  sched.ClaimedAmount.String(),
	})
}

func (s *Server) handleGetTotalVestingInfo(w http.ResponseWriter, req *RPCRequest) {
	var params accountParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := config.ParseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return
	}
	info, err := s.engine.TotalVestingInfo(account)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, vestingInfoResult{
		TotalAmount:    info.TotalAmount.String(),
		UnlockedAmount: info.UnlockedAmount.String(),
		ClaimedAmount:  info.ClaimedAmount.String(),
		LockedAmount:   info.LockedAmount.String(),
	})
}

func (s *Server) handleAvailableAmount(w http.ResponseWriter, req *RPCRequest) {
	available, err := s.engine.AvailableAmount()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"available": available.String()})
}

func (s *Server) handleCommittedTotal(w http.ResponseWriter, req *RPCRequest) {
	total, err := s.engine.CommittedTotal()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"committedTotal": total.String()})
}

func (s *Server) handleStartTimestamp(w http.ResponseWriter, req *RPCRequest) {
	start, err := s.engine.VestingStart()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]int64{"startTimestamp": start})
}

func (s *Server) handleAdmin(w http.ResponseWriter, req *RPCRequest) {
	admin := s.engine.Admin()
	writeResult(w, req.ID, map[string]string{"admin": hex.EncodeToString(admin[:])})
}

func (s *Server) handleBalanceOf(w http.ResponseWriter, req *RPCRequest) {
	var params accountParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := config.ParseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return
	}
	balance, err := s.token.BalanceOf(account)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": balance.String()})
}

func (s *Server) handleTotalSupply(w http.ResponseWriter, req *RPCRequest) {
	supply, err := s.token.TotalSupply()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"totalSupply": supply.String()})
}
