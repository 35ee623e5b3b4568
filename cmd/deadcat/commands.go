package main

import (
	"fmt"

	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/internal/core/domain"
	"github.com/urfave/cli/v2"
	"github.com/vulpemventures/go-elements/psetv2"
)

// flags
var (
	idFlag = &cli.StringFlag{
		Name:     "id",
		Usage:    "identifier of the market, pool or order",
		Required: true,
	}
	paramsFlag = &cli.StringFlag{
		Name:     "params",
		Usage:    "contract params as JSON object or path to a JSON file",
		Required: true,
	}
	questionFlag = &cli.StringFlag{
		Name:     "question",
		Usage:    "the question the market resolves",
		Required: true,
	}
	descriptionFlag = &cli.StringFlag{
		Name:  "description",
		Usage: "market description",
	}
	categoryFlag = &cli.StringFlag{
		Name:  "category",
		Usage: "market category",
	}
	resolutionSourceFlag = &cli.StringFlag{
		Name:  "resolution-source",
		Usage: "source the oracle resolves the market from",
	}
	creatorFlag = &cli.StringFlag{
		Name:  "creator-pubkey",
		Usage: "x-only pubkey of the market creator",
	}
	creationTxidFlag = &cli.StringFlag{
		Name:  "creation-txid",
		Usage: "txid of the market creation transaction",
	}
	issuedLpFlag = &cli.Uint64Flag{
		Name:  "issued-lp",
		Usage: "issued LP supply the pool address commits to, defaults to the last known one",
	}
	marketIdFlag = &cli.StringFlag{
		Name:  "market-id",
		Usage: "market the pool trades the outcome tokens of",
	}
	eventRefFlag = &cli.StringSliceFlag{
		Name:  "event-ref",
		Usage: "reference to the event that announced the order",
	}
	psetFlag = &cli.StringFlag{
		Name:     "pset",
		Usage:    "base64 encoded pset to finalize and broadcast",
		Required: true,
	}
)

// commands
var (
	infoCmd = &cli.Command{
		Name:   "info",
		Usage:  "Get info about the network and the chain tip",
		Action: infoAction,
	}
	marketCmd = &cli.Command{
		Name:  "market",
		Usage: "Announce and inspect prediction markets",
		Subcommands: append(
			cli.Commands{},
			marketAnnounceCmd,
			marketInfoCmd,
			marketStatusCmd,
			marketListCmd,
		),
	}
	marketAnnounceCmd = &cli.Command{
		Name:   "announce",
		Usage:  "Announce a market and get its addresses",
		Action: marketAnnounceAction,
		Flags: []cli.Flag{
			paramsFlag, questionFlag, descriptionFlag, categoryFlag,
			resolutionSourceFlag, creatorFlag, creationTxidFlag,
		},
	}
	marketInfoCmd = &cli.Command{
		Name:   "info",
		Usage:  "Get the addresses of a market",
		Action: marketInfoAction,
		Flags:  []cli.Flag{idFlag},
	}
	marketStatusCmd = &cli.Command{
		Name:   "status",
		Usage:  "Get the on-chain state of a market",
		Action: marketStatusAction,
		Flags:  []cli.Flag{idFlag},
	}
	marketListCmd = &cli.Command{
		Name:   "list",
		Usage:  "List the announced markets",
		Action: marketListAction,
	}
	poolCmd = &cli.Command{
		Name:  "pool",
		Usage: "Announce and inspect AMM pools",
		Subcommands: append(
			cli.Commands{},
			poolAnnounceCmd,
			poolStatusCmd,
		),
	}
	poolAnnounceCmd = &cli.Command{
		Name:   "announce",
		Usage:  "Announce a pool and get its address",
		Action: poolAnnounceAction,
		Flags:  []cli.Flag{paramsFlag, issuedLpFlag, marketIdFlag},
	}
	poolStatusCmd = &cli.Command{
		Name:   "status",
		Usage:  "Get the reserves of a pool",
		Action: poolStatusAction,
		Flags:  []cli.Flag{idFlag, issuedLpFlag},
	}
	orderCmd = &cli.Command{
		Name:  "order",
		Usage: "Announce and inspect maker orders",
		Subcommands: append(
			cli.Commands{},
			orderAnnounceCmd,
			orderStatusCmd,
			orderListCmd,
		),
	}
	orderAnnounceCmd = &cli.Command{
		Name:   "announce",
		Usage:  "Announce a maker order and get its address",
		Action: orderAnnounceAction,
		Flags:  []cli.Flag{paramsFlag, eventRefFlag},
	}
	orderStatusCmd = &cli.Command{
		Name:   "status",
		Usage:  "Get the amount locked by a maker order",
		Action: orderStatusAction,
		Flags:  []cli.Flag{idFlag},
	}
	orderListCmd = &cli.Command{
		Name:   "list",
		Usage:  "List the open maker orders",
		Action: orderListAction,
	}
	broadcastCmd = &cli.Command{
		Name:   "broadcast",
		Usage:  "Finalize and broadcast a pset",
		Action: broadcastAction,
		Flags:  []cli.Flag{psetFlag},
	}
)

func infoAction(ctx *cli.Context) error {
	info, err := svc.GetInfo(ctx.Context)
	if err != nil {
		return err
	}
	return printJSON(info)
}

func marketAnnounceAction(ctx *cli.Context) error {
	var dto marketParams
	if err := parseParams(ctx.String(paramsFlag.Name), &dto); err != nil {
		return err
	}
	params, err := dto.toParams()
	if err != nil {
		return err
	}

	meta := domain.MarketMetadata{
		Question:         ctx.String(questionFlag.Name),
		Description:      ctx.String(descriptionFlag.Name),
		Category:         ctx.String(categoryFlag.Name),
		ResolutionSource: ctx.String(resolutionSourceFlag.Name),
		CreatorPubKey:    ctx.String(creatorFlag.Name),
		CreationTxid:     ctx.String(creationTxidFlag.Name),
	}
	info, err := svc.AnnounceMarket(ctx.Context, params, meta)
	if err != nil {
		return err
	}
	return printJSON(info)
}

func marketInfoAction(ctx *cli.Context) error {
	info, err := svc.GetMarketInfo(ctx.Context, ctx.String(idFlag.Name))
	if err != nil {
		return err
	}
	return printJSON(info)
}

func marketStatusAction(ctx *cli.Context) error {
	status, err := svc.GetMarketStatus(ctx.Context, ctx.String(idFlag.Name))
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"market_id":  status.MarketId,
		"funded":     status.Funded,
		"state":      status.State.String(),
		"collateral": status.Collateral,
		"utxos":      utxoList(status.Utxos),
	})
}

func marketListAction(ctx *cli.Context) error {
	markets, err := svc.ListMarkets(ctx.Context)
	if err != nil {
		return err
	}
	list := make([]map[string]interface{}, 0, len(markets))
	for _, m := range markets {
		list = append(list, map[string]interface{}{
			"id":       m.Id,
			"question": m.Metadata.Question,
			"state":    m.State.String(),
		})
	}
	return printJSON(list)
}

func poolAnnounceAction(ctx *cli.Context) error {
	var dto poolParams
	if err := parseParams(ctx.String(paramsFlag.Name), &dto); err != nil {
		return err
	}
	params, err := dto.toParams()
	if err != nil {
		return err
	}

	info, err := svc.AnnouncePool(
		ctx.Context, params, ctx.Uint64(issuedLpFlag.Name), ctx.String(marketIdFlag.Name),
	)
	if err != nil {
		return err
	}
	return printJSON(info)
}

func poolStatusAction(ctx *cli.Context) error {
	status, err := svc.GetPoolStatus(
		ctx.Context, ctx.String(idFlag.Name), ctx.Uint64(issuedLpFlag.Name),
	)
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"pool_id":   status.PoolId,
		"issued_lp": status.IssuedLp,
		"address":   status.Address,
		"found":     status.Found,
		"reserves": map[string]uint64{
			"yes":  status.Reserves.Yes,
			"no":   status.Reserves.No,
			"lbtc": status.Reserves.Lbtc,
		},
		"utxos": utxoList(status.Utxos),
	})
}

func orderAnnounceAction(ctx *cli.Context) error {
	var dto orderParams
	if err := parseParams(ctx.String(paramsFlag.Name), &dto); err != nil {
		return err
	}
	params, err := dto.toParams()
	if err != nil {
		return err
	}

	info, err := svc.AnnounceMakerOrder(
		ctx.Context, params, params.MakerPubKey, params.Nonce,
		ctx.StringSlice(eventRefFlag.Name),
	)
	if err != nil {
		return err
	}
	return printJSON(orderInfo(info.Order, info.Address, info.MakerReceiveScript))
}

func orderStatusAction(ctx *cli.Context) error {
	info, err := svc.GetMakerOrderStatus(ctx.Context, ctx.String(idFlag.Name))
	if err != nil {
		return err
	}
	resp := orderInfo(info.Order, info.Address, info.MakerReceiveScript)
	resp["utxos"] = utxoList(info.Utxos)
	return printJSON(resp)
}

func orderListAction(ctx *cli.Context) error {
	orders, err := svc.ListOpenMakerOrders(ctx.Context)
	if err != nil {
		return err
	}
	list := make([]map[string]interface{}, 0, len(orders))
	for _, o := range orders {
		list = append(list, orderInfo(o, "", ""))
	}
	return printJSON(list)
}

func broadcastAction(ctx *cli.Context) error {
	pset, err := psetv2.NewPsetFromBase64(ctx.String(psetFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid pset: %s", err)
	}
	txid, err := svc.Broadcast(ctx.Context, pset)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{"txid": txid})
}

func orderInfo(o domain.MakerOrder, address, receiveScript string) map[string]interface{} {
	resp := map[string]interface{}{
		"uid":            o.Uid,
		"base_asset":     o.BaseAsset,
		"quote_asset":    o.QuoteAsset,
		"direction":      o.Params.Direction.String(),
		"price":          o.Params.Price,
		"status":         o.Status.String(),
		"initial_amount": o.InitialAmount,
		"locked_amount":  o.LockedAmount,
		"event_refs":     o.EventRefs,
	}
	if len(address) > 0 {
		resp["address"] = address
	}
	if len(receiveScript) > 0 {
		resp["maker_receive_script"] = receiveScript
	}
	return resp
}

func utxoList(utxos []common.UnblindedUtxo) []map[string]interface{} {
	list := make([]map[string]interface{}, 0, len(utxos))
	for _, u := range utxos {
		list = append(list, map[string]interface{}{
			"txid":  u.Txid,
			"vout":  u.Vout,
			"asset": u.Asset.String(),
			"value": u.Value,
		})
	}
	return list
}
